package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrQuotaExceeded is returned when a write would exceed the backend quota
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is the small key-value capability the library is persisted through
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns a KV backend for the given driver.
// The path is a directory for "file" and a database file for "sqlite".
func Open(driver, path string, quota int) (KV, error) {
	switch driver {
	case "", "file":
		return NewFileStore(path, quota)
	case "sqlite":
		return NewSQLiteStore(path, quota)
	case "memory":
		return NewMemoryStore(quota), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// Scoped namespaces every key of a shared KV with a prefix, used to keep one
// library per browser profile on a single backend.
func Scoped(kv KV, prefix string) KV {
	return &scoped{kv: kv, prefix: prefix}
}

type scoped struct {
	kv     KV
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, s.prefix+"."+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.prefix+"."+key, value)
}

// Close is a no-op; the shared backend is owned by whoever opened it.
func (s *scoped) Close() error {
	return nil
}

// MemoryStore keeps values in a map, for tests and ephemeral servers.
type MemoryStore struct {
	values map[string]string
	quota  int
	mu     sync.RWMutex
}

func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		quota:  quota,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, exists := s.values[key]
	return value, exists, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if err := checkQuota(s.quota, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// checkQuota enforces the per-entry byte quota; zero means unlimited.
func checkQuota(quota int, value string) error {
	if quota > 0 && len(value) > quota {
		return fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrQuotaExceeded, len(value), quota)
	}
	return nil
}
