// Package diarreport builds and serializes the report of one diarization run.
package diarreport

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/speechlab/go-diarizer/internal/model/segment"
)

// Metrics are the derived performance numbers for one run.
type Metrics struct {
	Duration       float64 // audio seconds
	ProcessingTime float64 // wall seconds spent in the diarization call
	RTFx           float64 // Duration / ProcessingTime; >1 is faster than real time
}

// ComputeMetrics derives the run metrics. A non-positive processing time
// yields RTFx 0 instead of dividing by zero.
func ComputeMetrics(audioSeconds float64, processing time.Duration) Metrics {
	m := Metrics{
		Duration:       audioSeconds,
		ProcessingTime: processing.Seconds(),
	}
	if m.ProcessingTime > 0 {
		m.RTFx = m.Duration / m.ProcessingTime
	}
	return m
}

// SegmentRow is one report entry. Duration is derived from the bounds.
type SegmentRow struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Speaker  string  `json:"speaker"`
}

// Report is the full serialized result of one run.
type Report struct {
	VideoID        string       `json:"video_id"`
	Duration       float64      `json:"duration"`
	ProcessingTime float64      `json:"processing_time"`
	RTFx           float64      `json:"rtfx"`
	Speakers       []string     `json:"speakers"`
	Segments       []SegmentRow `json:"segments"`
}

// VideoID derives the report identifier from the input filename, extension
// stripped.
func VideoID(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Build assembles the report. Speakers are the distinct speaker ids across
// all segments, sorted lexicographically; segment order is preserved as
// returned by the engine.
func Build(videoID string, m Metrics, segs []segment.Segment) *Report {
	speakers := lo.Uniq(lo.Map(segs, func(s segment.Segment, _ int) string {
		return s.Speaker
	}))
	sort.Strings(speakers)

	rows := lo.Map(segs, func(s segment.Segment, _ int) SegmentRow {
		return SegmentRow{
			Start:    s.Start,
			End:      s.End,
			Duration: s.Duration(),
			Speaker:  s.Speaker,
		}
	})

	return &Report{
		VideoID:        videoID,
		Duration:       m.Duration,
		ProcessingTime: m.ProcessingTime,
		RTFx:           m.RTFx,
		Speakers:       speakers,
		Segments:       rows,
	}
}

// Encode renders the report as indented JSON.
func Encode(r *Report) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Write encodes the report and writes it to outPath, or to w when outPath is
// empty. The report is fully encoded before any byte is written, so a failed
// run never leaves a partial report behind.
func Write(r *Report, outPath string, w io.Writer) error {
	b, err := Encode(r)
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err = w.Write(b)
		return err
	}
	return os.WriteFile(outPath, b, 0o644)
}
