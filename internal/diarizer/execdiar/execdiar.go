// Package execdiar runs diarization through an external engine binary. The
// buffer is rendered to a temporary WAV, the binary receives the model path
// and clustering parameters on its command line, and prints a JSON segment
// array on stdout.
package execdiar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/speechlab/go-diarizer/internal/audio"
	"github.com/speechlab/go-diarizer/internal/config"
	"github.com/speechlab/go-diarizer/internal/diarizer"
	"github.com/speechlab/go-diarizer/internal/model/segment"
	"github.com/speechlab/go-diarizer/internal/modelpack"
)

var _ diarizer.Engine = (*Engine)(nil)

// DefaultBinary is the engine binary looked up on $PATH.
const DefaultBinary = "speaker-diarize"

// EnvBinaryPath overrides binary discovery.
const EnvBinaryPath = "DIARIZER_PATH"

type Engine struct {
	binary string // explicit path; empty enables discovery
}

// New returns an exec-backed engine. An empty binary path enables discovery
// through $PATH, EnvBinaryPath, and the directory of the current executable,
// in that order.
func New(binary string) *Engine {
	return &Engine{binary: binary}
}

func (e *Engine) Diarize(
	ctx context.Context,
	bundle modelpack.Bundle,
	cfg config.Diarization,
	buf *audio.Buffer,
) ([]segment.Segment, error) {
	bin, err := e.findBinary()
	if err != nil {
		return nil, err
	}

	wavPath, cleanup, err := audio.RenderTempWav(buf)
	if err != nil {
		return nil, fmt.Errorf("render wav: %w", err)
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, bin, Argv(bundle, cfg, wavPath)...)
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", filepath.Base(bin), err)
	}
	return ParseOutput(out)
}

func (e *Engine) findBinary() (string, error) {
	if e.binary != "" {
		if _, err := os.Stat(e.binary); err != nil {
			return "", fmt.Errorf("diarizer binary: %w", err)
		}
		return e.binary, nil
	}

	if p, err := exec.LookPath(DefaultBinary); err == nil {
		return p, nil
	}

	if envPath := os.Getenv(EnvBinaryPath); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), DefaultBinary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s not found", DefaultBinary)
}

// Argv builds the engine invocation. Cluster settings use the engine's
// -1-means-auto convention.
func Argv(bundle modelpack.Bundle, cfg config.Diarization, wavPath string) []string {
	return []string{
		"--threshold", strconv.FormatFloat(cfg.ClusteringThreshold, 'f', -1, 64),
		"--num-clusters", strconv.Itoa(cfg.NumClusters.SentinelValue()),
		"--max-speakers", strconv.Itoa(cfg.MaxSpeakers.SentinelValue()),
		bundle.Path,
		wavPath,
	}
}

type engineSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// ParseOutput decodes the JSON segment array the engine prints on stdout.
func ParseOutput(out []byte) ([]segment.Segment, error) {
	var raw []engineSegment
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("engine returned invalid JSON: %w", err)
	}

	segs := make([]segment.Segment, 0, len(raw))
	for _, r := range raw {
		s := segment.New(r.Start, r.End, r.Speaker)
		if err := s.Validate(); err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, nil
}
