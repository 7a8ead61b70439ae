package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://local/")

	info, err := s.PutObject(ctx, "v/a.mp4", strings.NewReader("hello"), 5, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "v/a.mp4", info.Key)
	assert.Equal(t, int64(5), info.Size)
	assert.False(t, info.LastModified.IsZero())

	rc, got, err := s.GetObject(ctx, "v/a.mp4")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "video/mp4", got.ContentType)

	assert.Equal(t, "http://local/v/a.mp4", s.ObjectURL("v/a.mp4"))
}

func TestMemoryStore_SizeMismatch(t *testing.T) {
	s := NewMemoryStore("")
	_, err := s.PutObject(context.Background(), "k", strings.NewReader("abc"), 10, "")
	assert.Error(t, err)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("")

	_, err := s.StatObject(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, _, err = s.GetObject(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.NoError(t, s.RemoveObject(ctx, "missing"))
}

func TestMemoryStore_ListDelimiter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("")
	for _, key := range []string{"v/", "v/b", "v/a", "v/sub/x", "v/sub/y", "other/c"} {
		_, err := s.PutObject(ctx, key, strings.NewReader(""), 0, "")
		require.NoError(t, err)
	}

	objects, err := s.ListObjects(ctx, "v/")
	require.NoError(t, err)

	var keys []string
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"v/", "v/a", "v/b", "v/sub/"}, keys)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore("")

	_, err := s.PutObject(ctx, "k", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.ListObjects(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMinioStore_ObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  MinioConfig
		want string
	}{
		{
			name: "aws virtual host",
			cfg:  MinioConfig{Endpoint: "s3.amazonaws.com", Region: "ap-northeast-2", Bucket: "kibwa15", UseSSL: true},
			want: "https://kibwa15.s3.ap-northeast-2.amazonaws.com/uploadedVideos/my%20clip.mp4",
		},
		{
			name: "path style",
			cfg:  MinioConfig{Endpoint: "localhost:9000", Bucket: "videos"},
			want: "http://localhost:9000/videos/uploadedVideos/my%20clip.mp4",
		},
		{
			name: "public base",
			cfg:  MinioConfig{Endpoint: "localhost:9000", Bucket: "videos", PublicBase: "https://cdn.example.com/"},
			want: "https://cdn.example.com/uploadedVideos/my%20clip.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinioStore(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.ObjectURL("uploadedVideos/my clip.mp4"))
		})
	}
}

func TestNewMinioStore_RequiresBucket(t *testing.T) {
	_, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestTranslateError(t *testing.T) {
	noKey := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	assert.ErrorIs(t, translateError("get", "k", noKey), ErrObjectNotFound)

	bare404 := minio.ErrorResponse{StatusCode: 404}
	assert.ErrorIs(t, translateError("stat", "k", bare404), ErrObjectNotFound)

	noBucket := minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}
	err := translateError("get", "k", noBucket)
	assert.NotErrorIs(t, err, ErrObjectNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	err = translateError("get", "k", denied)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "get object")
}
