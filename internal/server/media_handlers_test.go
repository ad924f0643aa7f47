package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mediaContent is exactly 64 bytes so range math in assertions stays obvious.
const mediaContent = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ!?"

func setupMedia(t *testing.T, s *Server) {
	t.Helper()
	dir := filepath.Join(s.config.MediaRoot, "videos")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte(mediaContent), 0o644))
}

func TestServeMedia_FullFile(t *testing.T) {
	s, app := newTestServer(t)
	setupMedia(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/media/videos/clip.mp4", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, mediaContent, string(data))
}

func TestServeMedia_PartialContent(t *testing.T) {
	s, app := newTestServer(t)
	setupMedia(t, s)

	tests := []struct {
		name         string
		rangeHeader  string
		wantBody     string
		contentRange string
	}{
		{"Middle Window", "bytes=10-19", "abcdefghij", "bytes 10-19/64"},
		{"Open Ended", "bytes=60-", "YZ!?", "bytes 60-63/64"},
		{"Suffix", "bytes=-4", "YZ!?", "bytes 60-63/64"},
		{"End Clamped To Size", "bytes=60-999", "YZ!?", "bytes 60-63/64"},
		{"Single Byte", "bytes=0-0", "0", "bytes 0-0/64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/media/videos/clip.mp4", nil)
			req.Header.Set("Range", tt.rangeHeader)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
			assert.Equal(t, tt.contentRange, resp.Header.Get("Content-Range"))

			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(data))
		})
	}
}

func TestServeMedia_DegradedRanges(t *testing.T) {
	s, app := newTestServer(t)
	setupMedia(t, s)

	// Malformed, multi-range and unsatisfiable headers all get the full file.
	tests := []struct {
		name        string
		rangeHeader string
	}{
		{"Malformed", "bytes=abc"},
		{"Multi Range", "bytes=0-5,10-15"},
		{"Start Past End Of File", "bytes=100-"},
		{"Inverted", "bytes=20-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/media/videos/clip.mp4", nil)
			req.Header.Set("Range", tt.rangeHeader)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, mediaContent, string(data))
		})
	}
}

func TestServeMedia_SandboxAndMissing(t *testing.T) {
	s, app := newTestServer(t)
	setupMedia(t, s)

	// A secret outside the media root must stay unreachable.
	outside := filepath.Join(filepath.Dir(s.config.MediaRoot), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))

	// Whether the traversal is rejected by path normalization or the sandbox
	// check, the secret must never be served.
	for _, path := range []string{
		"/api/media/../secret.txt",
		"/api/media/videos/../../secret.txt",
		"/api/media/..%2fsecret.txt",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		data, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.NotEqual(t, "secret", string(data), "traversal via %s leaked the file", path)
		assert.NotEqual(t, http.StatusOK, resp.StatusCode, "traversal via %s returned 200", path)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/media/videos/missing.mp4", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
