package modelpack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.onnx")
	content := []byte("model weights")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	bundle, err := NewPathProvider(path).Acquire(context.Background())
	require.NoError(t, err)

	sum := sha256.Sum256(content)
	assert.Equal(t, "weights.onnx", bundle.Name)
	assert.Equal(t, path, bundle.Path)
	assert.Equal(t, hex.EncodeToString(sum[:]), bundle.SHA256)
}

func TestPathProviderMissing(t *testing.T) {
	_, err := NewPathProvider(filepath.Join(t.TempDir(), "missing.onnx")).Acquire(context.Background())
	assert.Error(t, err)
}

func TestDownloadProviderDownloadsOnceAndCaches(t *testing.T) {
	content := []byte("segmentation model payload")
	sum := sha256.Sum256(content)

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write(content)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	p := NewDownloadProvider(srv.URL+"/models/segmentation.onnx", hex.EncodeToString(sum[:]), cacheDir)

	bundle, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "segmentation.onnx", bundle.Name)
	assert.Equal(t, hex.EncodeToString(sum[:]), bundle.SHA256)

	got, err := os.ReadFile(bundle.Path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Second acquire must be served from the cache.
	again, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bundle, again)
	assert.Equal(t, int32(1), requests.Load())
}

func TestDownloadProviderChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered payload"))
	}))
	defer srv.Close()

	p := NewDownloadProvider(srv.URL+"/model.onnx", "deadbeef", t.TempDir())

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestDownloadProviderBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewDownloadProvider(srv.URL+"/model.onnx", "", t.TempDir()).Acquire(context.Background())
	assert.Error(t, err)
}
