package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig describes an S3-compatible bucket (R2, MinIO, S3).
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Key       string
}

// ObjectSource reads an artifact from object storage.
type ObjectSource struct {
	client *minio.Client
	bucket string
	key    string
}

// NewObjectSource constructs the storage adapter.
func NewObjectSource(cfg ObjectConfig) (*ObjectSource, error) {
	if strings.TrimSpace(cfg.Bucket) == "" || strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("object source requires bucket and key")
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Endpoint)), "http://")
	client, err := minio.New(sanitizeEndpoint(cfg.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &ObjectSource{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// Open fetches the object, failing fast when it does not exist.
func (s *ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, statErr := obj.Stat(); statErr != nil {
		obj.Close()
		return nil, statErr
	}
	return obj, nil
}

// Publish uploads data as the artifact, creating the bucket if needed.
func (s *ObjectSource) Publish(ctx context.Context, data []byte) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil || !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return err
		}
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      "application/json",
		DisableMultipart: true,
	})
	return err
}

// Location returns bucket/key.
func (s *ObjectSource) Location() string {
	return s.bucket + "/" + s.key
}

var _ Source = (*ObjectSource)(nil)

// sanitizeEndpoint strips the scheme and any path, as minio.New expects host[:port].
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.Index(raw, "/"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}
