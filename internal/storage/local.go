// Package storage provides the append-only attachment store used by
// the public portal. Files are written once under a generated unique
// name; nothing is ever overwritten or deleted.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StoredFile describes a persisted attachment.
type StoredFile struct {
	Key       string
	SizeBytes int64
}

// LocalStore writes attachments to a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore ensures the directory exists and returns the store.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save streams the content to a freshly generated key. The original
// file extension is kept for content-type sniffing by download tools.
func (s *LocalStore) Save(fileName string, content io.Reader) (*StoredFile, error) {
	key := uuid.NewString() + filepath.Ext(fileName)
	path := filepath.Join(s.dir, key)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		return nil, fmt.Errorf("write attachment: %w", err)
	}
	return &StoredFile{Key: key, SizeBytes: size}, nil
}

// Open returns a reader for a stored attachment.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, key))
}
