package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldynamics/vidstore/internal/config"
	"github.com/ldynamics/vidstore/internal/storage"
	"github.com/ldynamics/vidstore/internal/video"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Second,
		MaxUploadBytes: 1 << 20,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, store storage.ObjectStore) *httptest.Server {
	t.Helper()
	gw, err := video.NewGateway(store, video.Config{Namespace: "uploadedVideos", StagingDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(cfg, gw))
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, srv *httptest.Server, filename string, content []byte, token string) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, "file", filename, content)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", ct)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func listKeys(t *testing.T, srv *httptest.Server) []string {
	t.Helper()
	resp, err := http.Get(srv.URL + "/list")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp)

	var objs []video.StoredObject
	require.NoError(t, json.Unmarshal(env.Data, &objs))
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys
}

func TestRouter_VideoLifecycle(t *testing.T) {
	srv := newTestServer(t, testConfig(), storage.NewMemoryStore("https://bucket.example"))
	content := []byte("seventeen bytes!!")

	assert.Empty(t, listKeys(t, srv))

	resp := upload(t, srv, "clip1.mp4", content, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env := decode(t, resp)
	assert.True(t, env.Success)
	var obj video.StoredObject
	require.NoError(t, json.Unmarshal(env.Data, &obj))
	assert.Equal(t, "uploadedVideos/clip1.mp4", obj.Key)
	assert.Equal(t, uint64(17), obj.Size)
	assert.Equal(t, "https://bucket.example/uploadedVideos/clip1.mp4", obj.URL)

	assert.Equal(t, []string{"uploadedVideos/clip1.mp4"}, listKeys(t, srv))

	// The list page posts a form; API clients post JSON.
	resp, err := http.PostForm(srv.URL+"/downloadFile", url.Values{"dlKey": {obj.Key}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, `attachment; filename=clip1.mp4`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))

	for i := 0; i < 2; i++ {
		resp, err = http.Post(srv.URL+"/deleteFile", "application/json", strings.NewReader(`{"dlKey":"uploadedVideos/clip1.mp4"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true}`, string(raw))
	}

	assert.Empty(t, listKeys(t, srv))
}

func TestRouter_UploadErrors(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 1024
	srv := newTestServer(t, cfg, storage.NewMemoryStore(""))

	t.Run("not multipart", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/upload", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("missing file field", func(t *testing.T) {
		body, ct := multipartBody(t, "video", "clip.mp4", []byte("x"))
		resp, err := http.Post(srv.URL+"/upload", ct, body)
		require.NoError(t, err)
		env := decode(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "file field is required", env.Error)
	})

	t.Run("too large", func(t *testing.T) {
		resp := upload(t, srv, "big.mp4", bytes.Repeat([]byte("x"), 4096), "")
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		resp.Body.Close()
	})

	assert.Empty(t, listKeys(t, srv))
}

func TestRouter_DownloadErrors(t *testing.T) {
	srv := newTestServer(t, testConfig(), storage.NewMemoryStore(""))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing key", `{}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
		{"outside namespace", `{"dlKey":"../etc/passwd"}`, http.StatusBadRequest},
		{"never uploaded", `{"dlKey":"uploadedVideos/never.mp4"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/downloadFile", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			env := decode(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, env.Success)
		})
	}
}

// downStore fails every listing the way an unreachable bucket does.
type downStore struct{ *storage.MemoryStore }

func (downStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestRouter_StoreUnavailable(t *testing.T) {
	srv := newTestServer(t, testConfig(), downStore{storage.NewMemoryStore("")})

	resp, err := http.Get(srv.URL + "/list")
	require.NoError(t, err)
	env := decode(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "object store unavailable", env.Error)
}

func TestRouter_RequireAuth(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "s3cret"
	srv := newTestServer(t, cfg, storage.NewMemoryStore(""))

	resp := upload(t, srv, "clip.mp4", []byte("x"), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Post(srv.URL+"/deleteFile", "application/json", strings.NewReader(`{"dlKey":"uploadedVideos/clip.mp4"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "editor",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	resp = upload(t, srv, "clip.mp4", []byte("x"), token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Reads stay public.
	assert.Equal(t, []string{"uploadedVideos/clip.mp4"}, listKeys(t, srv))
}

func TestRouter_Ambient(t *testing.T) {
	srv := newTestServer(t, testConfig(), storage.NewMemoryStore(""))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	_ = listKeys(t, srv)
	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "vidstore_storage_operations_total")

	resp, err = http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "/upload")
}
