// Package pipeline drives one diarization run: model acquisition, audio
// loading and the engine call, strictly in that order. The first failure
// short-circuits the rest; there are no retries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/speechlab/go-diarizer/internal/audio"
	"github.com/speechlab/go-diarizer/internal/config"
	"github.com/speechlab/go-diarizer/internal/diarizer"
	"github.com/speechlab/go-diarizer/internal/model/segment"
	"github.com/speechlab/go-diarizer/internal/modelpack"
)

// Stage-tagged errors tell callers which step failed. Every one of them is
// terminal for the run.
var (
	ErrModelInit = errors.New("model initialization failed")
	ErrAudioLoad = errors.New("audio load failed")
	ErrDiarize   = errors.New("diarization failed")
)

const tracerName = "github.com/speechlab/go-diarizer/internal/pipeline"

// Result carries everything the report needs from one run.
type Result struct {
	Segments      []segment.Segment
	AudioDuration float64 // seconds of audio handed to the engine

	// ProcessingTime is the wall time of the engine call alone, measured
	// with the monotonic clock.
	ProcessingTime time.Duration
}

type Runner struct {
	provider modelpack.Provider
	loader   audio.Loader
	engine   diarizer.Engine
	logger   *slog.Logger
}

func NewRunner(
	provider modelpack.Provider,
	loader audio.Loader,
	engine diarizer.Engine,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		provider: provider,
		loader:   loader,
		engine:   engine,
		logger:   logger,
	}
}

// Run executes the three stages for one audio file.
func (r *Runner) Run(ctx context.Context, audioPath string, cfg config.Diarization) (*Result, error) {
	bundle, err := r.provider.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelInit, err)
	}
	r.logger.DebugContext(ctx, "model ready", "name", bundle.Name, "path", bundle.Path)

	buf, err := r.loader.Load(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioLoad, err)
	}
	r.logger.DebugContext(ctx, "audio loaded", "path", audioPath, "seconds", buf.Duration())

	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "diarize")
	start := time.Now()
	segs, err := r.engine.Diarize(spanCtx, bundle, cfg, buf)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, fmt.Errorf("%w: %w", ErrDiarize, err)
	}
	span.End()

	r.logger.DebugContext(ctx, "diarization finished",
		"segments", len(segs),
		"elapsed", elapsed,
		"threshold", cfg.ClusteringThreshold,
		"num_clusters", cfg.NumClusters.String(),
		"max_speakers", cfg.MaxSpeakers.String(),
	)

	return &Result{
		Segments:       segs,
		AudioDuration:  buf.Duration(),
		ProcessingTime: elapsed,
	}, nil
}
