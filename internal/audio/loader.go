package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"
)

// Loader reads an audio file into a 16 kHz mono Buffer.
type Loader interface {
	Load(ctx context.Context, path string) (*Buffer, error)
}

// WavLoader decodes PCM WAV files, downmixing multi-channel audio to mono and
// resampling to SampleRate when the source rate differs.
type WavLoader struct{}

var _ Loader = (*WavLoader)(nil)

func NewWavLoader() *WavLoader { return &WavLoader{} }

func (l *WavLoader) Load(ctx context.Context, path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: invalid wav file", path)
	}
	dec.ReadInfo()

	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("unsupported wav format: %d, need PCM=1", dec.WavAudioFormat)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 || dec.BitDepth == 0 {
		return nil, errors.New("invalid wav header")
	}

	mono, err := decodeMono(ctx, dec)
	if err != nil {
		return nil, err
	}

	if int(dec.SampleRate) != SampleRate {
		mono, err = resample(mono, int(dec.SampleRate))
		if err != nil {
			return nil, err
		}
	}

	out := make([]float32, len(mono))
	for i, s := range mono {
		out[i] = float32(s)
	}
	return &Buffer{Samples: out}, nil
}

// decodeMono reads the full PCM payload, averaging channels into mono and
// normalizing to [-1, 1] by the source bit depth.
func decodeMono(ctx context.Context, dec *wav.Decoder) ([]float64, error) {
	chans := int(dec.NumChans)
	intBuf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: chans, SampleRate: int(dec.SampleRate)},
		Data:           make([]int, SampleRate*chans), // ~1s of frames per read
		SourceBitDepth: int(dec.BitDepth),
	}
	scale := float64(int64(1) << (dec.BitDepth - 1))
	var offset float64
	if dec.BitDepth == 8 {
		// 8-bit WAV PCM is unsigned, silence sits at 128.
		offset = 128
	}

	var mono []float64
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		intBuf.Data = intBuf.Data[:cap(intBuf.Data)]
		n, err := dec.PCMBuffer(intBuf)
		if n > 0 {
			frames := n / chans
			for i := 0; i < frames; i++ {
				var sum float64
				for c := 0; c < chans; c++ {
					sum += (float64(intBuf.Data[i*chans+c]) - offset) / scale
				}
				mono = append(mono, sum/float64(chans))
			}
		}
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode wav: %w", err)
		}
	}
	return mono, nil
}

func resample(in []float64, srcRate int) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(SampleRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}
	out, err := rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample %d Hz to %d Hz: %w", srcRate, SampleRate, err)
	}
	return out, nil
}
