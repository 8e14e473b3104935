package diarreport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechlab/go-diarizer/internal/model/segment"
)

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(10.0, 2*time.Second)

	assert.Equal(t, 10.0, m.Duration)
	assert.Equal(t, 2.0, m.ProcessingTime)
	assert.Equal(t, 5.0, m.RTFx)
}

func TestComputeMetricsZeroProcessingTime(t *testing.T) {
	m := ComputeMetrics(10.0, 0)
	assert.Equal(t, 0.0, m.RTFx, "degenerate timing must not divide by zero")
}

func TestVideoID(t *testing.T) {
	assert.Equal(t, "sample", VideoID("path/to/sample.wav"))
	assert.Equal(t, "interview", VideoID("interview"))
	assert.Equal(t, "a.b", VideoID("/x/a.b.wav"))
}

func TestBuild(t *testing.T) {
	segs := []segment.Segment{
		segment.New(0, 0.5, "1"),
		segment.New(0.5, 1.0, "0"),
		segment.New(1.0, 1.5, "1"),
	}
	m := ComputeMetrics(1.0, 250*time.Millisecond)

	r := Build("sample", m, segs)

	assert.Equal(t, "sample", r.VideoID)
	assert.Equal(t, 1.0, r.Duration)
	assert.Equal(t, 0.25, r.ProcessingTime)
	assert.Equal(t, 4.0, r.RTFx)
	assert.Equal(t, []string{"0", "1"}, r.Speakers, "speakers must be deduplicated and sorted")

	require.Len(t, r.Segments, 3)
	assert.Equal(t, "1", r.Segments[0].Speaker, "segment order must be preserved")
	assert.InDelta(t, 0.5, r.Segments[0].Duration, 1e-9)
}

func TestBuildNoSegments(t *testing.T) {
	r := Build("empty", ComputeMetrics(1.0, time.Second), nil)

	b, err := Encode(r)
	require.NoError(t, err)

	assert.Contains(t, string(b), `"speakers": []`)
	assert.Contains(t, string(b), `"segments": []`)
}

func TestWriteFileRoundTrip(t *testing.T) {
	segs := []segment.Segment{
		segment.New(0, 4, "0"),
		segment.New(4, 10, "1"),
	}
	r := Build("sample", ComputeMetrics(10.0, 2*time.Second), segs)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, Write(r, path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var back Report
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, *r, back)
}

func TestWriteStdoutFallback(t *testing.T) {
	var buf bytes.Buffer
	r := Build("sample", ComputeMetrics(1.0, time.Second), nil)

	require.NoError(t, Write(r, "", &buf))

	var back Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "sample", back.VideoID)
}

func TestWriteOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	r := Build("fresh", ComputeMetrics(1.0, time.Second), nil)
	require.NoError(t, Write(r, path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "stale")
}
