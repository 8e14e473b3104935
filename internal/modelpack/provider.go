// Package modelpack acquires diarization model bundles: either weights that
// already exist on disk or a one-time HTTP download into a local cache.
package modelpack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Bundle points at locally available model weights.
type Bundle struct {
	Name   string
	Path   string
	SHA256 string
}

// Provider acquires a model bundle, downloading on first use when the
// implementation supports it.
type Provider interface {
	Acquire(ctx context.Context) (Bundle, error)
}

// PathProvider serves pre-provisioned weights from a fixed path.
type PathProvider struct {
	path string
}

func NewPathProvider(path string) *PathProvider {
	return &PathProvider{path: path}
}

func (p *PathProvider) Acquire(ctx context.Context) (Bundle, error) {
	if _, err := os.Stat(p.path); err != nil {
		return Bundle{}, fmt.Errorf("model weights: %w", err)
	}
	sum, err := fileSHA256(p.path)
	if err != nil {
		return Bundle{}, fmt.Errorf("hash model weights: %w", err)
	}
	return Bundle{
		Name:   filepath.Base(p.path),
		Path:   p.path,
		SHA256: sum,
	}, nil
}

// DownloadProvider fetches weights over HTTP once and caches them under
// cacheDir. A cached file with a matching checksum is reused without touching
// the network.
type DownloadProvider struct {
	url      string
	sha256   string // expected hex digest; empty skips verification
	cacheDir string
	client   *http.Client
}

func NewDownloadProvider(rawURL, sha256Hex, cacheDir string) *DownloadProvider {
	return &DownloadProvider{
		url:      rawURL,
		sha256:   sha256Hex,
		cacheDir: cacheDir,
		client:   http.DefaultClient,
	}
}

func (p *DownloadProvider) Acquire(ctx context.Context) (Bundle, error) {
	name := remoteName(p.url)
	dst := filepath.Join(p.cacheDir, name)

	if sum, err := fileSHA256(dst); err == nil {
		if p.sha256 == "" || sum == p.sha256 {
			return Bundle{Name: name, Path: dst, SHA256: sum}, nil
		}
		// stale or corrupt cache entry, re-download
	}

	if err := os.MkdirAll(p.cacheDir, 0o755); err != nil {
		return Bundle{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Bundle{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Bundle{}, fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Bundle{}, fmt.Errorf("download model: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(p.cacheDir, name+".part-*")
	if err != nil {
		return Bundle{}, err
	}

	h := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if copyErr == nil {
			copyErr = closeErr
		}
		return Bundle{}, fmt.Errorf("download model: %w", copyErr)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if p.sha256 != "" && sum != p.sha256 {
		os.Remove(tmp.Name())
		return Bundle{}, fmt.Errorf("model checksum mismatch: got %s, want %s", sum, p.sha256)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return Bundle{}, err
	}
	return Bundle{Name: name, Path: dst, SHA256: sum}, nil
}

func remoteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || path.Base(u.Path) == "." || path.Base(u.Path) == "/" {
		return "model.bin"
	}
	return path.Base(u.Path)
}

func fileSHA256(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
