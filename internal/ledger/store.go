// Package ledger persists the two small text stores the orchestrator keeps
// on the source drive: the per-destination backup history and the rolling
// timing log. Both follow the same discipline: take an exclusive file lock,
// load, mutate in memory, serialize the whole store, replace atomically.
// A malformed row or block is discarded and never fails a run.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// withLock runs fn while holding an exclusive lock scoped to the store at
// path. The lock covers the whole load-mutate-write cycle, so two
// orchestrators racing on the same source cannot lose each other's update.
func withLock(path string, fn func() error) error {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer fl.Unlock()
	return fn()
}

// readStore returns the store's raw contents. A missing store is empty,
// not an error: first run, or a ledger lost with its drive.
func readStore(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeAtomic writes data to a temporary sibling and renames it over path,
// so an interrupted write never leaves a half-written store behind.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
