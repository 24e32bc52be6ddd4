package filestore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Store abstracts where attachment blobs live. The local backend serves
// development and self-hosted installs; the S3 backend serves production.
type Store interface {
	Save(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectKey string) error
	Exists(ctx context.Context, objectKey string) (bool, error)
}

var (
	defaultStore  Store
	defaultConfig *Config
	initOnce      sync.Once
	initErr       error
)

// New creates a store for the configured backend.
func New(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStore(cfg.LocalBasePath)
	case BackendS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// Default returns the process-wide store, initializing it from the
// environment on first use.
func Default() (Store, *Config, error) {
	initOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			initErr = err
			return
		}
		store, err := New(cfg)
		if err != nil {
			initErr = err
			return
		}
		defaultConfig = cfg
		defaultStore = store
	})
	return defaultStore, defaultConfig, initErr
}
