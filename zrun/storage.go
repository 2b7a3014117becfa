package main

import (
	"io"
	"os"
	"path/filepath"
)

// DirStorage keeps the story's files in a directory. Absolute names are
// used as given.
type DirStorage struct {
	Dir string
}

func (s DirStorage) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Dir, name)
}

func (s DirStorage) Create(name string) (io.WriteCloser, error) {
	return os.Create(s.path(name))
}

func (s DirStorage) Open(name string) (io.ReadCloser, error) {
	return os.Open(s.path(name))
}
