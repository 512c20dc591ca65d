// Package storage persists rendered QR images either to an S3 bucket or to a
// local uploads directory, depending on configuration.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"qrForgeAPI/config"
)

// Uploader stores an image and returns its public location: an absolute
// object URL for remote storage, a relative path for local storage.
type Uploader interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
}

// NewFromConfig picks S3 when the process is configured for remote storage
// and credentials are present, otherwise the local directory.
func NewFromConfig(cfg *config.Config) (Uploader, error) {
	if cfg.Storage.S3Configured() {
		return NewS3Storage(cfg.Storage)
	}
	return NewLocalStorage(cfg.Storage.LocalDir), nil
}

// LocalStorage writes files under dir, creating it if absent.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (l *LocalStorage) Save(_ context.Context, data []byte, _ string) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads dir: %w", err)
	}

	name := uuid.New().String() + ".png"
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return "/uploads/" + name, nil
}
