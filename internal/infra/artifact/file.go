package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// FileSource reads an artifact from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource constructs a file-backed source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Open opens the file for reading.
func (s *FileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(s.path)
}

// Location returns the file path.
func (s *FileSource) Location() string {
	return s.path
}

// Path returns the cleaned file path.
func (s *FileSource) Path() string {
	return s.path
}

var _ Source = (*FileSource)(nil)
