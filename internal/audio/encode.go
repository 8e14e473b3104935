package audio

import (
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWav writes the buffer as 16-bit mono PCM WAV at SampleRate.
func EncodeWav(w io.WriteSeeker, buf *Buffer) error {
	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		data[i] = v
	}

	enc := wav.NewEncoder(w, SampleRate, 16, 1, 1)
	if err := enc.Write(&gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return err
	}
	return enc.Close()
}

// RenderTempWav writes the buffer to a temporary WAV file for handoff to
// out-of-process engines. The caller removes the file via cleanup.
func RenderTempWav(buf *Buffer) (string, func(), error) {
	f, err := os.CreateTemp("", "diarize-*.wav")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()

	if err := EncodeWav(f, buf); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}
