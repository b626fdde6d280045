// Package storage fetches uploaded spreadsheets from object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/leads-import-worker/internal/common"
)

// ErrObjectNotFound is returned when the bucket or object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Downloader reads a whole object into memory.
type Downloader interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	Close() error
}

// New builds the Downloader selected by cfg.Backend.
func New(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (Downloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case "s3":
		return NewS3Downloader(cfg, logger)
	case "gcs":
		return NewGCSDownloader(ctx, logger)
	case "fs":
		return NewFSDownloader(cfg.LocalRoot, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrInvalidInput, cfg.Backend)
	}
}
