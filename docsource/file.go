package docsource

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

// FileSource reads and writes a document on the local filesystem. Save
// detects concurrent modification by re-reading the file and comparing it
// against the content seen at load time.
type FileSource struct {
	path   string
	loaded []byte
}

// NewFileSource creates a Source for a file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) String() string { return s.path }

// Load reads the file and remembers its content for conflict detection.
func (s *FileSource) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", &LoadError{Ref: s.path, Err: err}
	}
	s.loaded = data
	return string(data), nil
}

// Save writes new content. If the file on disk no longer matches what Load
// returned, the write is refused with a ConflictError.
func (s *FileSource) Save(_ context.Context, content string) error {
	if s.loaded == nil {
		return &SaveError{Ref: s.path, Err: fmt.Errorf("save before load")}
	}

	current, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return &SaveError{Ref: s.path, Err: err}
	}
	if err == nil && !bytes.Equal(current, s.loaded) {
		return &SaveError{Ref: s.path, Err: &ConflictError{Ref: s.path}}
	}

	if err := os.WriteFile(s.path, []byte(content), 0644); err != nil {
		return &SaveError{Ref: s.path, Err: err}
	}
	s.loaded = []byte(content)
	return nil
}
