// Package diarizertest provides deterministic in-memory doubles for pipeline
// and report tests: no model files, no subprocesses, no network.
package diarizertest

import (
	"context"

	"github.com/speechlab/go-diarizer/internal/audio"
	"github.com/speechlab/go-diarizer/internal/config"
	"github.com/speechlab/go-diarizer/internal/diarizer"
	"github.com/speechlab/go-diarizer/internal/model/segment"
	"github.com/speechlab/go-diarizer/internal/modelpack"
)

var (
	_ diarizer.Engine    = (*Engine)(nil)
	_ modelpack.Provider = (*Provider)(nil)
	_ audio.Loader       = (*Loader)(nil)
)

// Engine returns canned segments and records what it was called with.
type Engine struct {
	Segments []segment.Segment
	Err      error

	Calls      int
	LastBundle modelpack.Bundle
	LastConfig config.Diarization
}

func (e *Engine) Diarize(
	ctx context.Context,
	bundle modelpack.Bundle,
	cfg config.Diarization,
	buf *audio.Buffer,
) ([]segment.Segment, error) {
	e.Calls++
	e.LastBundle = bundle
	e.LastConfig = cfg
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Segments, nil
}

// Provider hands out a fixed bundle or a fixed error.
type Provider struct {
	Bundle modelpack.Bundle
	Err    error
	Calls  int
}

func (p *Provider) Acquire(ctx context.Context) (modelpack.Bundle, error) {
	p.Calls++
	if p.Err != nil {
		return modelpack.Bundle{}, p.Err
	}
	return p.Bundle, nil
}

// Loader hands out a fixed buffer or a fixed error.
type Loader struct {
	Buffer *audio.Buffer
	Err    error
	Calls  int
}

func (l *Loader) Load(ctx context.Context, path string) (*audio.Buffer, error) {
	l.Calls++
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Buffer, nil
}
