package progress

import (
	"io/fs"
	"path/filepath"
)

// CountFiles walks root and counts regular files. Unreadable subtrees
// (OS-protected folders, permission holes) are skipped, not fatal: the
// result is a best-effort total for progress estimation, nothing more.
func CountFiles(root string) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			total++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
