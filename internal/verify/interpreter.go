// Package verify normalizes the result of the post-backup comparison pass.
//
// The comparison runs the mirroring engine in list-only mode, which still
// reports everything it would change. Its exit code has one documented
// false positive: the orchestrator's own working-log directory is excluded
// from the comparison on the source side only, so the destination's copy of
// it shows up as a phantom extra and raises the "extras present" code with
// no real content difference behind it. The interpreter absorbs exactly
// that case and nothing else.
package verify

import (
	"strings"

	"github.com/kebairia/mirrorctl/internal/engine"
)

// Outcome is the normalized verification result.
type Outcome int

const (
	Passed Outcome = iota
	DifferencesFound
)

func (o Outcome) String() string {
	if o == Passed {
		return "PASSED"
	}
	return "DIFFERENCES FOUND"
}

// markers are the engine's literal, case-sensitive tokens for a real
// destination-only file or directory.
var markers = []string{engine.MarkerExtraFile, engine.MarkerExtraDir}

// Interpret maps a comparison pass's exit code and report lines to an
// Outcome. Exit 0 passes unconditionally. The extras-present code passes
// only when no marker line backs it up (the phantom-extra case); any
// marker makes it a real difference. Every other code is a difference:
// unknown codes are never silently accepted as a pass.
func Interpret(exitCode int, logLines []string) Outcome {
	switch {
	case exitCode == 0:
		return Passed
	case exitCode == engine.ExitExtrasPresent:
		if len(ExtraLines(logLines)) == 0 {
			return Passed
		}
		return DifferencesFound
	default:
		return DifferencesFound
	}
}

// ExtraLines returns the report lines naming a real extra file or
// directory, for inclusion in the attempt summary.
func ExtraLines(logLines []string) []string {
	var hits []string
	for _, line := range logLines {
		for _, m := range markers {
			if strings.Contains(line, m) {
				hits = append(hits, line)
				break
			}
		}
	}
	return hits
}
