// Package securestore persists opaque string key-value pairs across process restarts.
package securestore

import (
	"context"
	"errors"
	"path/filepath"
)

// Common errors for store construction.
var (
	ErrInvalidConfig    = errors.New("securestore: invalid configuration")
	ErrInvalidStoreType = errors.New("securestore: invalid store type")
)

// Store defines durable key-value operations.
//
// Get distinguishes three outcomes: a value (ok=true), absence (ok=false,
// err=nil) and a storage failure (err!=nil). An empty string is a value.
type Store interface {
	// Save durably writes a single key.
	Save(ctx context.Context, key, value string) error
	// SaveAll writes all pairs atomically: either every pair is visible or none is.
	SaveAll(ctx context.Context, pairs map[string]string) error
	// Get reads a key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Close releases resources.
	Close() error
}

// StoreType represents the store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeSQLite StoreType = "sqlite"
)

// StoreOption is a functional option for configuring a store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	path    string
	keyPath string
}

// WithPath sets the data file (file driver) or database file (sqlite driver).
func WithPath(path string) StoreOption {
	return func(c *storeConfig) { c.path = path }
}

// WithKeyPath sets the device key used to seal the file driver. Defaults to device.key next to the data file.
func WithKeyPath(path string) StoreOption {
	return func(c *storeConfig) { c.keyPath = path }
}

// NewStore creates a Store of the given type.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeFile:
		if cfg.path == "" {
			return nil, ErrInvalidConfig
		}
		if cfg.keyPath == "" {
			cfg.keyPath = filepath.Join(filepath.Dir(cfg.path), "device.key")
		}
		return NewFileStore(cfg.path, cfg.keyPath)
	case StoreTypeSQLite:
		if cfg.path == "" {
			return nil, ErrInvalidConfig
		}
		return NewSQLiteStore(cfg.path)
	default:
		return nil, ErrInvalidStoreType
	}
}
