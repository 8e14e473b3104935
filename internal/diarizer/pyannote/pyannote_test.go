package pyannote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechlab/go-diarizer/internal/audio"
	"github.com/speechlab/go-diarizer/internal/config"
	"github.com/speechlab/go-diarizer/internal/modelpack"
)

func testBuffer() *audio.Buffer {
	return &audio.Buffer{Samples: make([]float32, audio.SampleRate/10)}
}

func TestDiarize(t *testing.T) {
	var gotThreshold, gotNumSpeakers, gotMaxSpeakers string
	var gotAudioBytes int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/diarize", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))

		gotThreshold = r.FormValue("threshold")
		gotNumSpeakers = r.FormValue("num_speakers")
		gotMaxSpeakers = r.FormValue("max_speakers")

		file, _, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 1<<20)
		n, _ := file.Read(buf)
		gotAudioBytes = n

		json.NewEncoder(w).Encode(sidecarResponse{
			Segments: []sidecarSegment{
				{Speaker: "0", Start: 0, End: 4},
				{Speaker: "1", Start: 4, End: 10},
			},
		})
	}))
	defer srv.Close()

	engine := New(srv.URL)
	cfg := config.FromFlags(0.7, 2, 3, false)

	segs, err := engine.Diarize(context.Background(), modelpack.Bundle{Name: "pyannote"}, cfg, testBuffer())
	require.NoError(t, err)

	assert.Equal(t, "0.7", gotThreshold)
	assert.Equal(t, "2", gotNumSpeakers)
	assert.Equal(t, "3", gotMaxSpeakers)
	assert.Greater(t, gotAudioBytes, 44, "the upload must contain a WAV payload")

	require.Len(t, segs, 2)
	assert.Equal(t, "0", segs[0].Speaker)
	assert.Equal(t, 10.0, segs[1].End)
}

func TestDiarizeOmitsAutoFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Empty(t, r.FormValue("num_speakers"))
		assert.Empty(t, r.FormValue("max_speakers"))
		json.NewEncoder(w).Encode(sidecarResponse{})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Diarize(context.Background(), modelpack.Bundle{}, config.DefaultDiarization(), testBuffer())
	require.NoError(t, err)
}

func TestDiarizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Diarize(context.Background(), modelpack.Bundle{}, config.DefaultDiarization(), testBuffer())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDiarizeSidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sidecarResponse{Error: "no voice activity"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Diarize(context.Background(), modelpack.Bundle{}, config.DefaultDiarization(), testBuffer())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no voice activity")
}

func TestModelProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	bundle, err := NewModelProvider(New(srv.URL)).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pyannote", bundle.Name)
}

func TestModelProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewModelProvider(New(srv.URL)).Acquire(context.Background())
	assert.Error(t, err)
}
