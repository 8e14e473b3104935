// Package diarizer defines the engine interface diarization backends
// implement.
//
// # Backends
//
//   - diarizer/execdiar: out-of-process engine binary
//   - diarizer/pyannote: pyannote HTTP sidecar
//   - diarizer/diarizertest: deterministic doubles for tests
package diarizer

import (
	"context"

	"github.com/speechlab/go-diarizer/internal/audio"
	"github.com/speechlab/go-diarizer/internal/config"
	"github.com/speechlab/go-diarizer/internal/model/segment"
	"github.com/speechlab/go-diarizer/internal/modelpack"
)

// Engine runs speaker diarization over a full audio buffer and returns the
// segments in whatever order the backend produced them.
type Engine interface {
	Diarize(
		ctx context.Context,
		bundle modelpack.Bundle,
		cfg config.Diarization,
		buf *audio.Buffer,
	) ([]segment.Segment, error)
}
