// Package snapshot reads the source side of a migration run: the timestamped
// crawl directories under the source root and the embedded SQLite file each
// one carries.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSourceUnavailable marks a missing or unreadable source root.
var ErrSourceUnavailable = errors.New("snapshot source unavailable")

// Dir is one snapshot directory under the source root.
type Dir struct {
	Path string
	Name string
}

// Locate returns the immediate subdirectories of root, sorted by name.
// Plain files are ignored. The walk is non-recursive.
func Locate(root string) ([]Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrSourceUnavailable, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceUnavailable, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, root, err)
	}

	// os.ReadDir already sorts entries by name, which keeps snapshot
	// processing order deterministic.
	dirs := make([]Dir, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dirs = append(dirs, Dir{Path: filepath.Join(root, e.Name()), Name: e.Name()})
	}
	return dirs, nil
}
