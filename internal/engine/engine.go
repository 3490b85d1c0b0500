// Package engine wraps the external mirroring engine behind a narrow
// invocation interface. The engine is a black box: it is handed a fully
// built flag set, and all the orchestrator ever reads back is the numeric
// exit code, the streamed output lines and the report log it wrote.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kebairia/mirrorctl/internal/logger"
)

// Exit-code contract of the engine. Codes are informational bitmasks: low
// bits report work done (files copied, extras removed, mismatches fixed,
// retries happened), codes at or above the failure threshold report errors.
const (
	// ExitFailureThreshold is the first exit code that means the copy
	// failed. Everything below is success with possible notes.
	ExitFailureThreshold = 8

	// ExitExtrasPresent is the list-only pass's "destination has extras"
	// signal. See the verify package for why this alone proves nothing.
	ExitExtrasPresent = 2
)

// Marker tokens the engine prints for destination-only entries. Matching is
// literal and case-sensitive.
const (
	MarkerExtraFile = "*EXTRA File"
	MarkerExtraDir  = "*EXTRA Dir"
)

// ErrEngineStart indicates the engine binary could not be started at all.
var ErrEngineStart = errors.New("mirroring engine failed to start")

// Invocation is one fully specified engine run.
type Invocation struct {
	Source string
	Dest   string

	// LogPath receives the engine's full report.
	LogPath string

	// Mirror synchronizes dest to exactly match source, deleting extras.
	// ListOnly reports intended changes without applying any. The two are
	// never set together.
	Mirror   bool
	ListOnly bool

	Threads   int
	Retries   int
	RetryWait time.Duration

	// Verbose makes the engine log skipped files too.
	Verbose bool

	// NoProgress suppresses the engine's own inline per-file percentage
	// annotations. Required whenever the output is counted externally:
	// the annotations add extra numeric tokens to every file line.
	NoProgress bool

	// ExcludeDirs lists directories to leave out of the run. Bare names
	// exclude every directory with that name; full paths exclude exactly
	// one side's directory.
	ExcludeDirs []string

	// LineSink, when non-nil, receives every output line as it is
	// produced. Nil means log file only.
	LineSink func(line string)
}

// Result is everything the orchestrator consumes from a finished run.
type Result struct {
	ExitCode int
	LogPath  string
}

// Runner starts an engine invocation and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// Robocopy invokes a robocopy-compatible engine binary.
type Robocopy struct {
	Command string
	Logger  logger.Logger
}

var _ Runner = (*Robocopy)(nil)

// NewRobocopy returns a Runner for the given engine binary.
func NewRobocopy(command string) *Robocopy {
	return &Robocopy{Command: command, Logger: logger.Global()}
}

// buildArgs translates an Invocation into the engine's flag set.
func buildArgs(inv Invocation) []string {
	args := []string{inv.Source, inv.Dest}
	if inv.Mirror {
		args = append(args, "/MIR")
	}
	if inv.ListOnly {
		args = append(args, "/L")
	}
	// Preserve directory timestamps alongside file attributes.
	args = append(args, "/DCOPY:T")
	args = append(args, "/MT:"+strconv.Itoa(inv.Threads))
	args = append(args, "/R:"+strconv.Itoa(inv.Retries))
	args = append(args, "/W:"+strconv.Itoa(int(inv.RetryWait.Seconds())))
	if inv.Verbose {
		args = append(args, "/V")
	}
	if inv.NoProgress {
		args = append(args, "/NP")
	}
	if inv.LineSink != nil {
		// Stream to the foreground as well as the log.
		args = append(args, "/TEE")
	}
	args = append(args, "/LOG:"+inv.LogPath)
	if len(inv.ExcludeDirs) > 0 {
		args = append(args, "/XD")
		args = append(args, inv.ExcludeDirs...)
	}
	return args
}

// FlagSummary returns the flag portion of the invocation as one string,
// the form the attempt summary and the timing log record.
func (inv Invocation) FlagSummary() string {
	return strings.Join(buildArgs(inv)[2:], " ")
}

// Run starts the engine and blocks until it exits, feeding output lines to
// inv.LineSink as they arrive. A nonzero exit code is not an error here:
// the engine's codes are a status report, and interpreting them is the
// caller's job. Only a failure to launch or stream is an error.
func (r *Robocopy) Run(ctx context.Context, inv Invocation) (Result, error) {
	args := buildArgs(inv)
	cmd := exec.CommandContext(ctx, r.Command, args...)

	if r.Logger != nil {
		r.Logger.Debug("engine invocation", "command", r.Command, "args", args)
	}

	if inv.LineSink == nil {
		if err := cmd.Run(); err != nil {
			if code, ok := exitCode(err); ok {
				return Result{ExitCode: code, LogPath: inv.LogPath}, nil
			}
			return Result{}, fmt.Errorf("%w: %v", ErrEngineStart, err)
		}
		return Result{ExitCode: 0, LogPath: inv.LogPath}, nil
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("%w: stdout pipe: %v", ErrEngineStart, err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}

	// One line at a time, as produced. The engine's parallel workers share
	// this stream, so lines may arrive interleaved or split; the sink has
	// to tolerate that.
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		inv.LineSink(scanner.Text())
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		if code, ok := exitCode(err); ok {
			return Result{ExitCode: code, LogPath: inv.LogPath}, nil
		}
		return Result{}, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}
	if scanErr != nil {
		return Result{}, fmt.Errorf("read engine output: %w", scanErr)
	}
	return Result{ExitCode: 0, LogPath: inv.LogPath}, nil
}

// exitCode unwraps the process exit code from a cmd.Run/Wait error.
func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
