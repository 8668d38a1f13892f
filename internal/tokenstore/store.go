// Package tokenstore persists the Gateway session token between commands.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Key is the name the session token is stored under in every backend.
const Key = "wacApiToken"

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown token backend")

// Store holds at most one session token.
type Store interface {
	// Get returns the stored token and whether one is present.
	Get(ctx context.Context) (string, bool, error)
	// Set replaces the stored token.
	Set(ctx context.Context, token string) error
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Options configures Open.
type Options struct {
	Backend       string
	FilePath      string
	RedisAddr     string
	RedisPassword string
}

// Open returns the Store selected by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(opts.FilePath)
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// MemoryStore keeps the token in process memory. An empty token counts as
// absent, as in every other backend.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
