package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileStore keeps one JSON file per key inside a directory
type FileStore struct {
	dir   string
	quota int
	mu    sync.RWMutex
}

func NewFileStore(dir string, quota int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir, quota: quota}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes through a temp file and rename so readers never see a partial value.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	if err := checkQuota(s.quota, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".kv-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
