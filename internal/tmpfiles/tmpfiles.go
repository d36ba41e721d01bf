// Package tmpfiles manages the scratch directories where generated
// audio and images live before delivery.
package tmpfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Dir is a scratch directory for one kind of artifact.
type Dir struct {
	path string
}

// NewDir creates (if needed) a private scratch directory under root.
func NewDir(root, kind string) (*Dir, error) {
	path := filepath.Join(root, kind)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// NewFile reserves a unique file name with the given extension. The file
// is not created; callers write it themselves.
func (d *Dir) NewFile(ext string) string {
	return filepath.Join(d.path, uuid.NewString()+ext)
}

// Resolve maps a bare file name back into the directory, rejecting
// anything that would escape it.
func (d *Dir) Resolve(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(d.path, name), nil
}

// Sweep deletes artifacts older than maxAge and reports how many were
// removed.
func (d *Dir) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(d.path, entry.Name())) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
