package core

import (
	"context"
	"io"
)

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// DownloadPrefix copies every object under prefix into dir, keeping the
	// key layout, and returns the local paths written. An object whose key
	// equals prefix is written as dir/<base name>.
	DownloadPrefix(ctx context.Context, bucket, prefix, dir string) ([]string, error)
}
