package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FSDownloader serves objects from <root>/<bucket>/<path> on the local disk.
type FSDownloader struct {
	root string
	log  *slog.Logger
}

func NewFSDownloader(root string, logger *slog.Logger) *FSDownloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSDownloader{root: root, log: logger}
}

func (d *FSDownloader) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := filepath.Join(bucket, filepath.FromSlash(path))
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: path %q escapes storage root", ErrObjectNotFound, path)
	}
	abs := filepath.Join(d.root, rel)

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, abs)
		}
		d.log.Error("fs read failed", "path", abs, "err", err)
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}
	d.log.Debug("fs object read", "path", abs, "bytes", len(data))
	return data, nil
}

func (d *FSDownloader) Close() error { return nil }
