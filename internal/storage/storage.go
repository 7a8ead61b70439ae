// Package storage defines the bucket interface the video gateway talks to.
// MinioStore reaches AWS S3 or any S3-compatible endpoint; MemoryStore keeps
// objects in process for development and tests.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when the requested key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one object as reported by the store.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	StorageClass string
	ContentType  string
	ETag         string
}

// ObjectStore is the interface for writing, reading, listing and removing objects.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// PutObject streams size bytes from reader to key, replacing any existing object.
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (ObjectInfo, error)
	// StatObject returns metadata for key, or ErrObjectNotFound.
	StatObject(ctx context.Context, key string) (ObjectInfo, error)
	// GetObject opens key for reading. The caller must close the reader.
	GetObject(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// ListObjects returns the entries directly under prefix, in store order.
	// Sub-folders are reported as keys ending in "/".
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// RemoveObject deletes key. Removing a missing key is not an error.
	RemoveObject(ctx context.Context, key string) error
	// ObjectURL constructs the browser-accessible URL for a given key.
	ObjectURL(key string) string
}

// escapeKey percent-encodes key for use in a URL path, keeping "/" separators.
func escapeKey(key string) string {
	return (&url.URL{Path: strings.TrimLeft(key, "/")}).EscapedPath()
}
