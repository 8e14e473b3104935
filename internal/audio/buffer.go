// Package audio holds the PCM buffer consumed by diarization engines and the
// WAV loader that produces it.
package audio

// SampleRate is the fixed rate every Buffer is normalized to.
const SampleRate = 16000

// Buffer is mono PCM at SampleRate with samples in [-1, 1].
type Buffer struct {
	Samples []float32
}

// Duration is the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(len(b.Samples)) / float64(SampleRate)
}
