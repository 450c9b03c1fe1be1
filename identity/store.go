package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore caches the token set between runs. Load returns nil, nil
// when nothing is cached.
type SessionStore interface {
	Load() (*Tokens, error)
	Save(tokens *Tokens) error
	Clear() error
}

var (
	_ SessionStore = (*MemoryStore)(nil)
	_ SessionStore = (*FileStore)(nil)
)

type MemoryStore struct {
	tokens *Tokens
	lock   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*Tokens, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.tokens == nil {
		return nil, nil
	}
	t := *m.tokens
	return &t, nil
}

func (m *MemoryStore) Save(tokens *Tokens) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	t := *tokens
	m.tokens = &t
	return nil
}

func (m *MemoryStore) Clear() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.tokens = nil
	return nil
}

// FileStore keeps the token set in a JSON file readable only by the owner.
type FileStore struct {
	path string
	lock sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (*Tokens, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}

	var tokens Tokens
	if err := json.Unmarshal(b, &tokens); err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}
	return &tokens, nil
}

// Save writes via a temp file then rename.
func (f *FileStore) Save(tokens *Tokens) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}
	b, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Clear() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("FileStore.Clear: %w", err)
	}
	return nil
}
