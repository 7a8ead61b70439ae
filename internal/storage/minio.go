package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinioConfig carries everything needed to reach one bucket.
type MinioConfig struct {
	Endpoint   string // host[:port], e.g. "s3.amazonaws.com" or "localhost:9000"
	Region     string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string // optional; overrides the URL ObjectURL derives from bucket and region
}

// MinioStore implements ObjectStore using the MinIO client against AWS S3
// or any S3-compatible backend.
type MinioStore struct {
	client *minio.Client
	cfg    MinioConfig
}

// NewMinioStore creates a client for cfg.Bucket. It does not contact the
// store; call EnsureBucket for that.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	cfg.PublicBase = strings.TrimRight(cfg.PublicBase, "/")
	return &MinioStore{client: client, cfg: cfg}, nil
}

// EnsureBucket creates the bucket when it does not exist yet. Intended for
// local MinIO setups; production buckets are provisioned out of band.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.cfg.Bucket, err)
	}
	log.Info().Str("bucket", s.cfg.Bucket).Msg("storage: created bucket")
	return nil
}

// PutObject streams reader to the bucket under key. size must be the exact byte count.
func (s *MinioStore) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (ObjectInfo, error) {
	info, err := s.client.PutObject(ctx, s.cfg.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("put object %q: %w", key, err)
	}
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  contentType,
		ETag:         info.ETag,
	}, nil
}

// StatObject returns the metadata of key.
func (s *MinioStore) StatObject(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, translateError("stat", key, err)
	}
	return fromMinio(info), nil
}

// GetObject opens key for streaming. The request is issued eagerly so a
// missing key is reported here rather than on the first Read.
func (s *MinioStore) GetObject(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, translateError("get", key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, translateError("get", key, err)
	}
	return obj, fromMinio(info), nil
}

// ListObjects lists the immediate children of prefix.
func (s *MinioStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects := make([]ObjectInfo, 0)
	for object := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, object.Err)
		}
		objects = append(objects, fromMinio(object))
	}
	// The listing goroutine stops silently on cancellation.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list objects %q: %w", prefix, err)
	}
	return objects, nil
}

// RemoveObject deletes key from the bucket. S3 reports success for missing keys;
// backends that answer NoSuchKey instead are normalised to success too.
func (s *MinioStore) RemoveObject(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	if err = translateError("remove", key, err); errors.Is(err, ErrObjectNotFound) {
		return nil
	}
	return err
}

// ObjectURL returns the browser-accessible URL for key.
// With a public base:  "https://cdn.example.com/uploadedVideos/clip1.mp4"
// On AWS:              "https://kibwa15.s3.ap-northeast-2.amazonaws.com/uploadedVideos/clip1.mp4"
// Elsewhere:           "http://localhost:9000/kibwa15/uploadedVideos/clip1.mp4"
func (s *MinioStore) ObjectURL(key string) string {
	escaped := escapeKey(key)
	if s.cfg.PublicBase != "" {
		return s.cfg.PublicBase + "/" + escaped
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	if strings.HasSuffix(s.cfg.Endpoint, "amazonaws.com") && s.cfg.Region != "" {
		return fmt.Sprintf("%s://%s.s3.%s.amazonaws.com/%s", scheme, s.cfg.Bucket, s.cfg.Region, escaped)
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, escaped)
}

func fromMinio(info minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		StorageClass: info.StorageClass,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
	}
}

// translateError maps a missing-key response to ErrObjectNotFound. A missing
// bucket is a configuration fault and is passed through unchanged.
func translateError(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchBucket":
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s object %q: %w", op, key, ErrObjectNotFound)
	}
	return fmt.Errorf("%s object %q: %w", op, key, err)
}
