package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps every document in <dir>/<key>.json
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir when missing and returns a backend rooted there
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put writes to a temp file first so a crash never leaves a torn document
func (b *FileBackend) Put(key string, value []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, b.path(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}

// NewFileStore opens a Store that writes JSON files into dir
func NewFileStore(dir string) (Store, error) {
	backend, err := NewFileBackend(dir)
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}
