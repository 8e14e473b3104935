package segment

import "fmt"

// Segment is a contiguous stretch of the audio timeline attributed to one
// speaker. Times are seconds from the start of the recording.
type Segment struct {
	Start   float64
	End     float64
	Speaker string
}

func New(start, end float64, speaker string) Segment {
	return Segment{
		Start:   start,
		End:     end,
		Speaker: speaker,
	}
}

// Duration is the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

func (s Segment) Validate() error {
	if s.End < s.Start {
		return fmt.Errorf("segment ends at %.3fs before it starts at %.3fs", s.End, s.Start)
	}
	return nil
}
