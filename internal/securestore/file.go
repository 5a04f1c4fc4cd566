package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/geocam/internal/crypto/sealer"
)

const (
	fileSealPurpose = "geocam/securestore"
	fileAAD         = "geocam/securestore/v1"
)

type fileDoc struct {
	Values map[string]string `json:"values"`
}

// FileStore keeps all pairs in one sealed JSON document, replaced atomically on every write.
type FileStore struct {
	mu     sync.Mutex
	path   string
	sealer *sealer.Sealer
}

// NewFileStore opens (or prepares) a sealed file store; the device key is created on first use.
func NewFileStore(path, keyPath string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	key, err := sealer.LoadOrCreateKey(keyPath)
	if err != nil {
		return nil, fmt.Errorf("device key: %w", err)
	}
	s, err := sealer.New(key, fileSealPurpose)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, sealer: s}, nil
}

func (s *FileStore) load() (map[string]string, error) {
	blob, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	plain, err := s.sealer.Open(blob, []byte(fileAAD))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	var doc fileDoc
	if err := json.Unmarshal(plain, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc.Values, nil
}

func (s *FileStore) write(values map[string]string) error {
	plain, err := json.Marshal(fileDoc{Values: values})
	if err != nil {
		return err
	}
	blob, err := s.sealer.Seal(plain, []byte(fileAAD))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *FileStore) update(fn func(map[string]string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	if !fn(values) {
		return nil
	}
	return s.write(values)
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, key, value string) error {
	return s.update(func(m map[string]string) bool {
		m[key] = value
		return true
	})
}

// SaveAll implements Store.
func (s *FileStore) SaveAll(_ context.Context, pairs map[string]string) error {
	return s.update(func(m map[string]string) bool {
		for k, v := range pairs {
			m[k] = v
		}
		return len(pairs) > 0
	})
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	return s.update(func(m map[string]string) bool {
		changed := false
		for _, k := range keys {
			if _, ok := m[k]; ok {
				delete(m, k)
				changed = true
			}
		}
		return changed
	})
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
