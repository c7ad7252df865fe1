package session

import (
	"sync"

	"github.com/SEP490-G11/Project-Round/internal/credential"
)

// KeyringBackend persists session slots in the system keyring.
type KeyringBackend struct{}

func (KeyringBackend) Get(key string) (string, error) {
	return credential.Get(key)
}

func (KeyringBackend) Set(key, value string) error {
	return credential.Set(key, value)
}

func (KeyringBackend) Delete(key string) error {
	return credential.Delete(key)
}

// MemoryBackend is an in-memory Backend used in tests and as a fallback
// when no keyring backend is available on the host.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (b *MemoryBackend) Get(key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	if !ok {
		return "", credential.ErrNotFound
	}
	return v, nil
}

func (b *MemoryBackend) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}
