// Package archive stores generated report documents on the local
// filesystem, one file per report.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir archives reports into a directory.
type Dir struct {
	path string
}

// NewDir creates the archive directory if it does not exist.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Archive writes one report document. An existing file with the same name is
// overwritten, so regenerating a report replaces its archived copy.
func (d *Dir) Archive(filename string, content []byte) error {
	if err := os.WriteFile(filepath.Join(d.path, filename), content, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}
