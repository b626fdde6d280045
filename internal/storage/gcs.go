package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
)

// GCSDownloader reads objects from Google Cloud Storage using application default credentials.
type GCSDownloader struct {
	client *storage.Client
	log    *slog.Logger
}

func NewGCSDownloader(ctx context.Context, logger *slog.Logger) (*GCSDownloader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	logger.Info("gcs storage configured")
	return &GCSDownloader{client: client, log: logger}, nil
}

func (d *GCSDownloader) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	r, err := d.client.Bucket(bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, d.mapErr(bucket, path, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, d.mapErr(bucket, path, err)
	}
	d.log.Debug("gcs object downloaded", "bucket", bucket, "path", path, "bytes", len(data))
	return data, nil
}

func (d *GCSDownloader) mapErr(bucket, path string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, path)
	}
	d.log.Error("gcs download failed", "bucket", bucket, "path", path, "err", err)
	return fmt.Errorf("download gs://%s/%s: %w", bucket, path, err)
}

func (d *GCSDownloader) Close() error { return d.client.Close() }
