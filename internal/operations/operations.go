package operations

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kebairia/mirrorctl/internal/config"
	"github.com/kebairia/mirrorctl/internal/engine"
	"github.com/kebairia/mirrorctl/internal/ledger"
	"github.com/kebairia/mirrorctl/internal/logger"
)

// ErrPrecondition indicates an unmet safety requirement. Nothing has been
// mutated when it is returned.
var ErrPrecondition = errors.New("backup precondition not met")

// ErrEngine indicates the copy phase exited at or above the engine's
// failure threshold.
var ErrEngine = errors.New("mirroring engine reported failure")

// Names of the artifacts kept in the working-log directory on the source.
const (
	backupReportName = "backup.log"
	verifyReportName = "verify.log"
	summaryTextName  = "summary.txt"
	summaryJSONName  = "summary.json"
	historyStoreName = "history.tsv"
	timingStoreName  = "timings.log"
)

// Operator drives backup attempts end to end: one attempt runs start to
// finish before any ledger write, and the two ledger writes happen one
// after the other, never concurrently with the engine.
type Operator struct {
	ctx    context.Context
	cfg    config.Config
	runner engine.Runner
	log    logger.Logger

	// out receives echoed engine lines and the progress status line.
	out io.Writer

	now func() time.Time
}

// NewOperator loads the YAML config at configPath and wires the engine
// runner it names.
func NewOperator(configPath string) (*Operator, error) {
	var cfg config.Config
	if err := cfg.Load(configPath); err != nil {
		return nil, err
	}
	return &Operator{
		ctx:    context.Background(),
		cfg:    cfg,
		runner: engine.NewRobocopy(cfg.Engine.Command),
		log:    logger.Global(),
		out:    os.Stdout,
		now:    time.Now,
	}, nil
}

// workDir is the orchestrator's working-log directory on the source root.
// It holds both ledgers and every per-run report, and is excluded from the
// mirror by full path so a user folder sharing its name still gets copied.
func (op *Operator) workDir(sourceRoot string) string {
	return filepath.Join(sourceRoot, op.cfg.Backup.WorkDir)
}

func (op *Operator) historyPath(sourceRoot string) string {
	return filepath.Join(op.workDir(sourceRoot), historyStoreName)
}

func (op *Operator) timingPath(sourceRoot string) string {
	return filepath.Join(op.workDir(sourceRoot), timingStoreName)
}

// History renders the History Ledger table for the given source root.
func (op *Operator) History(sourceRoot string) (string, error) {
	h, err := ledger.LoadHistory(op.historyPath(sourceRoot))
	if err != nil {
		return "", err
	}
	return h.Render(), nil
}

// Timings returns the Timing Log entries for the given source root,
// oldest first.
func (op *Operator) Timings(sourceRoot string) ([]ledger.TimingEntry, error) {
	return ledger.LoadTiming(op.timingPath(sourceRoot))
}
