package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joseph-ayodele/leads-import-worker/internal/common"
)

// S3Downloader reads objects from any S3-compatible endpoint.
type S3Downloader struct {
	client *minio.Client
	log    *slog.Logger
}

func NewS3Downloader(cfg common.StorageConfig, logger *slog.Logger) (*S3Downloader, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	logger.Info("s3 storage configured", "endpoint", endpoint, "secure", secure)
	return &S3Downloader{client: client, log: logger}, nil
}

// splitEndpoint accepts "host:port" or a URL and returns the host plus TLS flag.
func splitEndpoint(raw string, useSSL bool) (string, bool) {
	if !strings.Contains(raw, "://") {
		return raw, useSSL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw, useSSL
	}
	return u.Host, u.Scheme == "https"
}

func (d *S3Downloader) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	obj, err := d.client.GetObject(ctx, bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, d.mapErr(bucket, path, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, d.mapErr(bucket, path, err)
	}
	d.log.Debug("s3 object downloaded", "bucket", bucket, "path", path, "bytes", len(data))
	return data, nil
}

func (d *S3Downloader) mapErr(bucket, path string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case minio.NoSuchKey, minio.NoSuchBucket:
		return fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, bucket, path)
	}
	d.log.Error("s3 download failed", "bucket", bucket, "path", path, "err", err)
	return fmt.Errorf("download s3://%s/%s: %w", bucket, path, err)
}

func (d *S3Downloader) Close() error { return nil }
