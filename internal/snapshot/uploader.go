// Package snapshot uploads cache database snapshots to S3-compatible storage
// and hands out pre-signed download URLs for them. When no bucket is
// configured the NoopUploader is used and snapshots stay on local disk.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/healthcache/internal/config"
)

const (
	// DefaultObjectKey is the object the snapshot is stored under when none
	// is configured.
	DefaultObjectKey = "healthcache/snapshot/current.db"

	// ContentType is the media type snapshots are stored and served with.
	ContentType = "application/vnd.sqlite3"

	downloadName = "healthcache.db"
)

// ErrNotConfigured is returned when S3 snapshot storage is not configured.
var ErrNotConfigured = errors.New("snapshot storage not configured")

// Uploader uploads snapshots and generates pre-signed download URLs.
type Uploader interface {
	// Upload replaces the remote snapshot with the file at filePath.
	Upload(ctx context.Context, filePath string) error

	// PresignedURL returns a pre-signed URL for downloading the snapshot.
	// Returns ErrNotConfigured when S3 is not configured.
	PresignedURL(ctx context.Context) (url string, expiry time.Time, err error)
}

// objectStore is the subset of *minio.Client the uploader calls.
type objectStore interface {
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// S3Uploader keeps one snapshot object in a bucket.
type S3Uploader struct {
	client    objectStore
	bucket    string
	key       string
	urlExpiry time.Duration
	now       func() time.Time
}

// Upload overwrites the snapshot object with the file at filePath. The
// object records when it was uploaded in its user metadata.
func (u *S3Uploader) Upload(ctx context.Context, filePath string) error {
	info, err := u.client.FPutObject(ctx, u.bucket, u.key, filePath, minio.PutObjectOptions{
		ContentType: ContentType,
		UserMetadata: map[string]string{
			"uploaded-at": u.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("upload snapshot to %s/%s: %w", u.bucket, u.key, err)
	}
	if info.Size == 0 {
		return fmt.Errorf("upload snapshot to %s/%s: empty object", u.bucket, u.key)
	}
	return nil
}

// PresignedURL returns a pre-signed GET URL that downloads the snapshot as
// healthcache.db.
func (u *S3Uploader) PresignedURL(ctx context.Context) (string, time.Time, error) {
	params := url.Values{}
	params.Set("response-content-disposition", `attachment; filename="`+downloadName+`"`)

	issued := u.now()
	presigned, err := u.client.PresignedGetObject(ctx, u.bucket, u.key, u.urlExpiry, params)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign snapshot url: %w", err)
	}
	return presigned.String(), issued.Add(u.urlExpiry), nil
}

// NoopUploader is used when S3 storage is not configured.
type NoopUploader struct{}

// Upload does nothing.
func (u *NoopUploader) Upload(ctx context.Context, filePath string) error {
	return nil
}

// PresignedURL always returns ErrNotConfigured.
func (u *NoopUploader) PresignedURL(ctx context.Context) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewUploader returns a NoopUploader when no bucket is configured and an
// S3Uploader otherwise.
func NewUploader(cfg config.SnapshotConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}
	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectStore, cfg config.SnapshotConfig) *S3Uploader {
	key := cfg.ObjectKey
	if key == "" {
		key = DefaultObjectKey
	}
	return &S3Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		key:       key,
		urlExpiry: time.Duration(cfg.URLExpiry),
		now:       time.Now,
	}
}

// splitEndpoint strips an http:// or https:// prefix, which minio does not
// accept, and derives TLS from it. An explicit useSSL wins over a bare host;
// a bare host with no setting uses TLS.
func splitEndpoint(endpoint string, useSSL *bool) (string, bool) {
	if host, ok := strings.CutPrefix(endpoint, "https://"); ok {
		return host, true
	}
	if host, ok := strings.CutPrefix(endpoint, "http://"); ok {
		return host, false
	}
	if useSSL != nil {
		return endpoint, *useSSL
	}
	return endpoint, true
}
