package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kebairia/mirrorctl/internal/config"
)

// destLabelPrefix is the naming policy for backup destinations: a volume
// only qualifies as a mirror target when its label says so. Guards against
// mirroring onto (and wiping) a data drive picked by mistake.
const destLabelPrefix = "BACKUP"

// preflight enforces the safety preconditions before any mutation. The
// decisions themselves (drive selection, confirmation prompt) happen
// upstream; this is the last line check that they did.
func (op *Operator) preflight(req Request) error {
	src := filepath.Clean(req.SourceRoot)
	dst := filepath.Clean(req.DestRoot)
	if src == dst {
		return fmt.Errorf("%w: source and destination are the same location (%s)",
			ErrPrecondition, src)
	}
	if !strings.HasPrefix(req.DestLabel, destLabelPrefix) {
		return fmt.Errorf("%w: destination label %q does not start with %q",
			ErrPrecondition, req.DestLabel, destLabelPrefix)
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: source %s unreachable: %v", ErrPrecondition, src, err)
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("%w: destination %s unreachable: %v", ErrPrecondition, dst, err)
	}
	if !req.Confirmed {
		return fmt.Errorf("%w: run not confirmed", ErrPrecondition)
	}
	// Flag overrides bypass the config loader's validation, so the enums
	// are checked again here. An unrecognized verify policy must abort,
	// not silently skip verification.
	switch req.OutputMode {
	case config.ModeSilent, config.ModeEcho, config.ModeProgress:
	default:
		return fmt.Errorf("%w: unknown output mode %q (want silent, echo or progress)",
			ErrPrecondition, req.OutputMode)
	}
	switch req.Verify {
	case config.VerifyAlways, config.VerifyNever, config.VerifyAsk:
	default:
		return fmt.Errorf("%w: unknown verify policy %q (want always, never or ask)",
			ErrPrecondition, req.Verify)
	}
	return nil
}
