// Package pyannote talks to a pyannote diarization sidecar over HTTP. The
// sidecar owns the model weights, so the model-initialization step for this
// backend is a health probe.
package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/speechlab/go-diarizer/internal/audio"
	"github.com/speechlab/go-diarizer/internal/config"
	"github.com/speechlab/go-diarizer/internal/diarizer"
	"github.com/speechlab/go-diarizer/internal/model/segment"
	"github.com/speechlab/go-diarizer/internal/modelpack"
)

var (
	_ diarizer.Engine    = (*Engine)(nil)
	_ modelpack.Provider = (*ModelProvider)(nil)
)

// DefaultBaseURL is the sidecar address used when none is configured.
const DefaultBaseURL = "http://localhost:8388"

const defaultTimeout = 300 * time.Second

type Engine struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Engine {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Engine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (e *Engine) Diarize(
	ctx context.Context,
	bundle modelpack.Bundle,
	cfg config.Diarization,
	buf *audio.Buffer,
) ([]segment.Segment, error) {
	wavPath, cleanup, err := audio.RenderTempWav(buf)
	if err != nil {
		return nil, fmt.Errorf("render wav: %w", err)
	}
	defer cleanup()

	wavData, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read rendered wav: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	_ = writer.WriteField("threshold", strconv.FormatFloat(cfg.ClusteringThreshold, 'f', -1, 64))
	if n, ok := cfg.NumClusters.Fixed(); ok {
		_ = writer.WriteField("num_speakers", strconv.Itoa(n))
	}
	if n, ok := cfg.MaxSpeakers.Fixed(); ok {
		_ = writer.WriteField("max_speakers", strconv.Itoa(n))
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/diarize", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("diarization error (status %d): %s", resp.StatusCode, msg)
	}

	var result sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode diarization response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("diarization error: %s", result.Error)
	}

	segs := make([]segment.Segment, 0, len(result.Segments))
	for _, r := range result.Segments {
		s := segment.New(r.Start, r.End, r.Speaker)
		if err := s.Validate(); err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// IsAvailable reports whether the sidecar answers its health endpoint.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ModelProvider performs the model-initialization stage for the sidecar
// backend: acquisition succeeds when the sidecar is reachable.
type ModelProvider struct {
	engine *Engine
}

func NewModelProvider(e *Engine) *ModelProvider {
	return &ModelProvider{engine: e}
}

func (p *ModelProvider) Acquire(ctx context.Context) (modelpack.Bundle, error) {
	if !p.engine.IsAvailable(ctx) {
		return modelpack.Bundle{}, fmt.Errorf("pyannote sidecar unreachable at %s", p.engine.baseURL)
	}
	return modelpack.Bundle{Name: "pyannote"}, nil
}

// --- sidecar wire types ---

type sidecarSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

type sidecarResponse struct {
	Segments []sidecarSegment `json:"segments"`
	Error    string           `json:"error,omitempty"`
}
