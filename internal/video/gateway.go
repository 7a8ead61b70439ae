// Package video mediates every interaction between client requests and the
// bucket: uploads, listings, downloads and deletes of stored videos.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ldynamics/vidstore/internal/metrics"
	"github.com/ldynamics/vidstore/internal/storage"
)

// StoredObject describes one video in the namespace. URL is derived from the
// store configuration and the key; it is never persisted.
type StoredObject struct {
	Key          string    `json:"key"`
	Size         uint64    `json:"size"`
	LastModified time.Time `json:"lastModified"`
	StorageClass string    `json:"storageClass,omitempty"`
	URL          string    `json:"url"`
}

// Download is an open object. The caller must close Body.
type Download struct {
	StoredObject
	ContentType string
	Body        io.ReadCloser
}

// Filename is the attachment name offered to the client.
func (d *Download) Filename() string {
	return path.Base(d.Key)
}

// Config configures a Gateway.
type Config struct {
	Namespace  string // key prefix without trailing slash, e.g. "uploadedVideos"
	StagingDir string // where uploads are staged; empty means os.TempDir()
}

// Gateway holds no object state of its own; the store is the only source of
// truth. It is safe for concurrent use.
type Gateway struct {
	store      storage.ObjectStore
	prefix     string
	stagingDir string
	log        zerolog.Logger
}

// NewGateway creates a Gateway over store.
func NewGateway(store storage.ObjectStore, cfg Config, logger zerolog.Logger) (*Gateway, error) {
	ns := strings.Trim(cfg.Namespace, "/")
	if ns == "" {
		return nil, errors.New("namespace must not be empty")
	}
	return &Gateway{
		store:      store,
		prefix:     ns + "/",
		stagingDir: cfg.StagingDir,
		log:        logger.With().Str("component", "gateway").Logger(),
	}, nil
}

// Key returns the object key an upload called name is stored under.
func (g *Gateway) Key(name string) string {
	return g.prefix + name
}

// Upload stages content locally and writes it to <namespace>/<name>,
// replacing any existing object. The staging file is removed on every path.
func (g *Gateway) Upload(ctx context.Context, name string, content io.Reader) (obj StoredObject, err error) {
	defer observe("upload", time.Now(), &err)

	if err := g.validateName(name); err != nil {
		return StoredObject{}, err
	}
	key := g.Key(name)

	staged, size, err := g.stage(content)
	if err != nil {
		return StoredObject{}, fmt.Errorf("upload %q: %w", key, err)
	}
	defer func() {
		if rerr := g.release(staged); rerr != nil && err == nil {
			obj, err = StoredObject{}, fmt.Errorf("upload %q: %w", key, rerr)
		}
	}()

	info, err := g.store.PutObject(ctx, key, staged, size, contentTypeFor(name))
	if err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("upload failed")
		return StoredObject{}, storeError("upload", key, err)
	}
	metrics.UploadedBytesTotal.Add(float64(size))

	// S3 put responses carry neither size nor modification time.
	if info.LastModified.IsZero() {
		if statted, serr := g.store.StatObject(ctx, key); serr == nil {
			info = statted
		} else {
			g.log.Warn().Err(serr).Str("key", key).Msg("stat after upload failed")
		}
	}
	info.Key = key
	info.Size = size

	g.log.Info().Str("key", key).Int64("size", size).Msg("upload stored")
	return g.describe(info), nil
}

// List returns every object directly under the namespace in store order.
// Folder markers and sub-folders are left out; nothing else is.
func (g *Gateway) List(ctx context.Context) (objs []StoredObject, err error) {
	defer observe("list", time.Now(), &err)

	infos, err := g.store.ListObjects(ctx, g.prefix)
	if err != nil {
		g.log.Error().Err(err).Msg("list failed")
		return nil, storeError("list", g.prefix, err)
	}

	objs = make([]StoredObject, 0, len(infos))
	for _, info := range infos {
		if info.Key == g.prefix || strings.HasSuffix(info.Key, "/") {
			continue
		}
		objs = append(objs, g.describe(info))
	}
	return objs, nil
}

// Fetch opens key for download.
func (g *Gateway) Fetch(ctx context.Context, key string) (d *Download, err error) {
	defer observe("fetch", time.Now(), &err)

	if _, err := g.nameFromKey(key); err != nil {
		return nil, err
	}

	body, info, err := g.store.GetObject(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			g.log.Error().Err(err).Str("key", key).Msg("fetch failed")
		}
		return nil, storeError("fetch", key, err)
	}
	info.Key = key

	return &Download{
		StoredObject: g.describe(info),
		ContentType:  info.ContentType,
		Body:         body,
	}, nil
}

// Delete removes key. Deleting a key that does not exist succeeds.
func (g *Gateway) Delete(ctx context.Context, key string) (err error) {
	defer observe("delete", time.Now(), &err)

	if _, err := g.nameFromKey(key); err != nil {
		return err
	}
	if err := g.store.RemoveObject(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		g.log.Error().Err(err).Str("key", key).Msg("delete failed")
		return storeError("delete", key, err)
	}
	g.log.Info().Str("key", key).Msg("object deleted")
	return nil
}

func (g *Gateway) describe(info storage.ObjectInfo) StoredObject {
	var size uint64
	if info.Size > 0 {
		size = uint64(info.Size)
	}
	return StoredObject{
		Key:          info.Key,
		Size:         size,
		LastModified: info.LastModified,
		StorageClass: info.StorageClass,
		URL:          g.store.ObjectURL(info.Key),
	}
}

func observe(op string, start time.Time, err *error) {
	metrics.StorageOperationsTotal.WithLabelValues(op, outcome(*err)).Inc()
	metrics.StorageOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
