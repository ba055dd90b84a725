package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrArchiveUnavailable wraps storage failures so callers can tell them
// apart from decode or persistence problems.
var ErrArchiveUnavailable = errors.New("manifest archive unavailable")

// ManifestArchive keeps the raw compressed payload of every ingested
// transfer for audits and re-processing.
type ManifestArchive interface {
	Store(ctx context.Context, transferID uint64, payload []byte) (objectKey string, err error)
}

// NoopManifestArchive discards payloads. Used when no object store is
// configured.
type NoopManifestArchive struct{}

func NewNoopManifestArchive() *NoopManifestArchive { return &NoopManifestArchive{} }

func (*NoopManifestArchive) Store(context.Context, uint64, []byte) (string, error) {
	return "", nil
}

// MinIOManifestArchive stores payloads in an S3-compatible bucket.
type MinIOManifestArchive struct {
	client *minio.Client
	bucket string
}

func NewMinIOManifestArchive(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOManifestArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
		}
	}
	return &MinIOManifestArchive{client: client, bucket: bucket}, nil
}

func (a *MinIOManifestArchive) Store(ctx context.Context, transferID uint64, payload []byte) (string, error) {
	key := fmt.Sprintf("transfers/%d/%s.xml.z", transferID, uuid.NewString())
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}
	return key, nil
}
