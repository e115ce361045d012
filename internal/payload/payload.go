// Package payload resolves the file:// data references accepted by push
// commands. The filesystem is abstracted through afero so tests run against
// an in-memory tree.
package payload

import (
	"github.com/spf13/afero"
)

// Source reads push payloads from a filesystem.
type Source struct {
	fs afero.Fs
}

// NewSource creates a source backed by the given filesystem.
func NewSource(fs afero.Fs) *Source {
	return &Source{fs: fs}
}

// NewOSSource creates a source backed by the host filesystem.
func NewOSSource() *Source {
	return &Source{fs: afero.NewOsFs()}
}

// Exists reports whether path names a regular file.
func (s *Source) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadAll returns the entire contents of path.
func (s *Source) ReadAll(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}
