package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kebairia/mirrorctl/internal/config"
	"github.com/kebairia/mirrorctl/internal/engine"
	"github.com/kebairia/mirrorctl/internal/ledger"
	"github.com/kebairia/mirrorctl/internal/progress"
	"github.com/kebairia/mirrorctl/internal/verify"
)

// Status is the terminal state of one backup attempt.
type Status string

const (
	StatusOK     Status = "OK"
	StatusOKDiff Status = "OK (differences found)"
	StatusFailed Status = "FAILED"
)

// verificationSkipped is what the summary and timing log record when the
// comparison pass did not run.
const verificationSkipped = "not performed"

// Request is one fully resolved backup order. Drive selection, labeling
// and every interactive decision happened upstream; by the time a Request
// reaches the Operator it carries plain strings and settled booleans.
type Request struct {
	SourceRoot string
	DestRoot   string

	// DestLabel is the destination volume's identity and the History
	// Ledger key for this backup.
	DestLabel string

	// OutputMode is one of the config.Mode values.
	OutputMode string

	// Verify is one of the config.Verify values. VerifyAnswer carries the
	// already-resolved user decision when Verify is "ask".
	Verify       string
	VerifyAnswer bool

	Confirmed bool
}

// Attempt is the finalized record of one run. Built up while the state
// machine advances, finalized exactly once, then projected into the
// summary document and both ledgers.
type Attempt struct {
	StartedAt time.Time
	Source    string
	Dest      string
	DestLabel string
	Mode      string
	Flags     string

	ExitCode  int
	CountDur  ledger.Phase
	CopyDur   ledger.Phase
	VerifyDur ledger.Phase

	Status       Status
	Verification string
	ErrorLines   []string

	ReportPath       string
	VerifyReportPath string
}

// RunBackup drives one attempt through the whole state machine:
// preflight, optional pre-count, copy, summarize, history update, verify
// decision, finalize. A failed copy is terminal for the run; retries, if
// any, are the engine's own and opaque here.
func (op *Operator) RunBackup(req Request) (*Attempt, error) {
	if req.OutputMode == "" {
		req.OutputMode = op.cfg.Backup.OutputMode
	}
	if req.Verify == "" {
		req.Verify = op.cfg.Backup.Verify
	}
	if err := op.preflight(req); err != nil {
		return nil, err
	}

	workDir := op.workDir(req.SourceRoot)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %q: %w", workDir, err)
	}

	attempt := &Attempt{
		StartedAt:    op.now(),
		Source:       req.SourceRoot,
		Dest:         req.DestRoot,
		DestLabel:    req.DestLabel,
		Mode:         req.OutputMode,
		Verification: verificationSkipped,
		ReportPath:   filepath.Join(workDir, backupReportName),
	}

	// Pre-count phase: best-effort file total for progress derivation,
	// timed separately and skipped outside progress mode.
	var parser *progress.Parser
	if req.OutputMode == config.ModeProgress {
		countStart := op.now()
		total, err := progress.CountFiles(req.SourceRoot)
		if err != nil {
			op.log.Warn("pre-count failed, progress will report 0%", "error", err)
		}
		attempt.CountDur = ledger.PhaseOf(op.now().Sub(countStart))
		parser = progress.NewParser(total)
		op.log.Info("pre-count finished", "files", total, "took", attempt.CountDur.String())
	}

	inv := engine.Invocation{
		Source:     req.SourceRoot,
		Dest:       req.DestRoot,
		LogPath:    attempt.ReportPath,
		Mirror:     true,
		Threads:    op.cfg.Engine.Threads,
		Retries:    op.cfg.Engine.Retries,
		RetryWait:  op.cfg.Engine.RetryWait,
		// Always log skipped files too: on a re-run most files are
		// unchanged, and the pre-counted total includes them, so the
		// progress count needs their lines as much as the copied ones'.
		Verbose:    true,
		NoProgress: req.OutputMode == config.ModeProgress,
		// Protected system folders by name; the work dir by full path so
		// a user folder with the same name is still mirrored.
		ExcludeDirs: append(append([]string{}, op.cfg.ExcludeDirs...), workDir),
	}
	switch req.OutputMode {
	case config.ModeEcho:
		inv.LineSink = func(line string) { fmt.Fprintln(op.out, line) }
	case config.ModeProgress:
		renderer := progress.NewRenderer(op.out)
		inv.LineSink = func(line string) {
			if parser.Line(line) {
				renderer.Update(parser)
			}
		}
		defer renderer.Done()
	}
	attempt.Flags = inv.FlagSummary()

	op.log.Info("copy phase started",
		"source", req.SourceRoot,
		"dest", req.DestRoot,
		"mode", req.OutputMode,
	)
	copyStart := op.now()
	res, err := op.runner.Run(op.ctx, inv)
	attempt.CopyDur = ledger.PhaseOf(op.now().Sub(copyStart))
	if err != nil {
		return nil, fmt.Errorf("copy phase: %w", err)
	}
	attempt.ExitCode = res.ExitCode

	// Summarize: codes at or above the threshold are failures. A failed
	// mirror is not a backup of that destination, so the History Ledger
	// stays untouched; the Timing Log still records the attempt.
	if res.ExitCode >= engine.ExitFailureThreshold {
		attempt.Status = StatusFailed
		attempt.ErrorLines = extractErrorLines(res.LogPath)
		op.finalize(attempt, req.SourceRoot)
		op.log.Error("copy phase failed",
			"exit_code", res.ExitCode,
			"report", attempt.ReportPath,
		)
		return attempt, fmt.Errorf("%w: exit code %d, see %s",
			ErrEngine, res.ExitCode, attempt.ReportPath)
	}
	op.log.Info("copy phase finished",
		"exit_code", res.ExitCode,
		"took", attempt.CopyDur.String(),
	)

	if err := ledger.UpsertHistory(op.historyPath(req.SourceRoot), req.DestLabel, op.now()); err != nil {
		// The backup itself already happened; report and carry on.
		op.log.Error("history ledger write failed",
			"path", op.historyPath(req.SourceRoot), "error", err)
	}

	// Verify decision.
	runVerify := false
	switch req.Verify {
	case config.VerifyAlways:
		runVerify = true
	case config.VerifyAsk:
		runVerify = req.VerifyAnswer
	}

	if !runVerify {
		attempt.Status = StatusOK
		op.finalize(attempt, req.SourceRoot)
		return attempt, nil
	}

	// The summary is written before verification and only ever appended
	// to afterwards, so it records the copy phase's status now; the
	// verification outcome belongs to the suffix. The copy report is
	// archived first so the recorded path is the one that stays on disk.
	attempt.Status = StatusOK
	attempt.ReportPath = op.archiveReport(attempt.ReportPath)
	if err := op.writeSummary(attempt, workDir, true); err != nil {
		op.log.Error("summary write failed", "error", err)
	}
	op.runVerifyPhase(req, attempt, workDir)
	attempt.VerifyReportPath = op.archiveReport(attempt.VerifyReportPath)
	if err := op.appendVerifySuffix(attempt, workDir); err != nil {
		op.log.Error("summary verification append failed", "error", err)
	}
	if err := op.writeSummaryJSON(attempt, workDir); err != nil {
		op.log.Error("summary metadata write failed", "error", err)
	}
	op.appendTiming(attempt, req.SourceRoot)
	return attempt, nil
}

// finalize writes the attempt's summary documents and timing record on the
// paths that skip verification (failure, or verify declined). Reports are
// archived first so the summary records the surviving paths.
func (op *Operator) finalize(attempt *Attempt, sourceRoot string) {
	workDir := op.workDir(sourceRoot)
	attempt.ReportPath = op.archiveReport(attempt.ReportPath)
	attempt.VerifyReportPath = op.archiveReport(attempt.VerifyReportPath)
	if err := op.writeSummary(attempt, workDir, false); err != nil {
		op.log.Error("summary write failed", "error", err)
	}
	if err := op.writeSummaryJSON(attempt, workDir); err != nil {
		op.log.Error("summary metadata write failed", "error", err)
	}
	op.appendTiming(attempt, sourceRoot)
}

// runVerifyPhase invokes the engine's list-only comparison and settles the
// attempt's terminal status from the interpreter's outcome.
func (op *Operator) runVerifyPhase(req Request, attempt *Attempt, workDir string) {
	attempt.VerifyReportPath = filepath.Join(workDir, verifyReportName)

	// The work dir is excluded by exact path on both sides: exclusion is
	// path-literal, so excluding the source's copy says nothing about the
	// destination's. The asymmetric case is what produces phantom extras.
	excludes := append([]string{}, op.cfg.ExcludeDirs...)
	excludes = append(excludes, workDir, filepath.Join(req.DestRoot, op.cfg.Backup.WorkDir))

	var lines []string
	inv := engine.Invocation{
		Source:      req.SourceRoot,
		Dest:        req.DestRoot,
		LogPath:     attempt.VerifyReportPath,
		ListOnly:    true,
		Threads:     op.cfg.Engine.Threads,
		Retries:     op.cfg.Engine.Retries,
		RetryWait:   op.cfg.Engine.RetryWait,
		ExcludeDirs: excludes,
		LineSink:    func(line string) { lines = append(lines, line) },
	}

	op.log.Info("verification started", "report", attempt.VerifyReportPath)
	verifyStart := op.now()
	res, err := op.runner.Run(op.ctx, inv)
	attempt.VerifyDur = ledger.PhaseOf(op.now().Sub(verifyStart))
	if err != nil {
		// Verification is best effort; the backup itself succeeded.
		op.log.Error("verification could not run", "error", err)
		attempt.Status = StatusOK
		attempt.Verification = verificationSkipped
		attempt.VerifyDur = ledger.Phase{}
		return
	}

	outcome := verify.Interpret(res.ExitCode, lines)
	attempt.Verification = outcome.String()
	if outcome == verify.Passed {
		attempt.Status = StatusOK
	} else {
		attempt.Status = StatusOKDiff
		attempt.ErrorLines = verify.ExtraLines(lines)
	}
	op.log.Info("verification finished",
		"outcome", outcome.String(),
		"exit_code", res.ExitCode,
		"took", attempt.VerifyDur.String(),
	)
}

// appendTiming projects the attempt into the Timing Log. Runs on every
// terminal path, failures included.
func (op *Operator) appendTiming(attempt *Attempt, sourceRoot string) {
	entry := ledger.TimingEntry{
		When:      attempt.StartedAt,
		Source:    attempt.Source,
		Dest:      attempt.DestLabel,
		CountDur:  attempt.CountDur,
		CopyDur:   attempt.CopyDur,
		VerifyDur: attempt.VerifyDur,
		Flags:     attempt.Flags,
		Status:    string(attempt.Status),
	}
	if err := ledger.AppendTiming(op.timingPath(sourceRoot), entry); err != nil {
		op.log.Error("timing log write failed",
			"path", op.timingPath(sourceRoot), "error", err)
	}
}
