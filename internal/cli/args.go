// Package cli implements the lenient argument grammar of process-with-config:
// one positional audio path followed by optional flags. Unknown flags are
// skipped with a warning and malformed numeric values fall back to their
// defaults, so a run never dies over a bad flag.
package cli

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/speechlab/go-diarizer/internal/config"
)

// ErrUsage reports an invocation with no audio file argument.
var ErrUsage = errors.New("audio file argument required")

// Usage is printed on invocation errors.
const Usage = `Usage: process-with-config <audio_file> [options]

Options:
  --threshold F     clustering threshold in [0,1] (default 0.7)
  --num-clusters N  expected number of speakers, -1 = auto (default -1)
  --max-speakers N  cap on detected speakers, -1 = unlimited (default -1)
  --output PATH     write the JSON report to PATH instead of stdout
  --config PATH     YAML file with engine and model settings
  --debug           enable debug logging
`

// Args is the parsed command line. The numeric fields keep the -1-means-auto
// convention of the CLI surface; the Set fields record whether the user
// supplied a value that actually parsed, so file-config defaults know when to
// yield.
type Args struct {
	AudioPath string

	Threshold    float64
	ThresholdSet bool

	NumClusters    int
	NumClustersSet bool

	MaxSpeakers    int
	MaxSpeakersSet bool

	Debug      bool
	OutputPath string
	ConfigPath string
}

// cursor walks the argument list one token at a time. Flag values are taken
// through value so the one-or-two-tokens-per-flag lookahead stays in one
// place.
type cursor struct {
	args []string
	pos  int
}

func (c *cursor) next() (string, bool) {
	if c.pos >= len(c.args) {
		return "", false
	}
	t := c.args[c.pos]
	c.pos++
	return t, true
}

// value consumes the next token as the value of flag. It reports false when
// the flag is the last token, which leaves the flag unset.
func (c *cursor) value() (string, bool) {
	return c.next()
}

// Parse reads argv (without the program name). The first token is the audio
// path; its absence is the only fatal condition.
func Parse(argv []string, log *slog.Logger) (Args, error) {
	a := Args{
		Threshold:   config.DefaultThreshold,
		NumClusters: config.AutoSentinel,
		MaxSpeakers: config.AutoSentinel,
	}

	cur := &cursor{args: argv}

	path, ok := cur.next()
	if !ok {
		return Args{}, ErrUsage
	}
	a.AudioPath = path

	for {
		tok, ok := cur.next()
		if !ok {
			break
		}

		switch tok {
		case "--threshold":
			if raw, ok := cur.value(); ok {
				a.Threshold, a.ThresholdSet = parseFloat(log, tok, raw, a.Threshold)
			}
		case "--num-clusters":
			if raw, ok := cur.value(); ok {
				a.NumClusters, a.NumClustersSet = parseInt(log, tok, raw, a.NumClusters)
			}
		case "--max-speakers":
			if raw, ok := cur.value(); ok {
				a.MaxSpeakers, a.MaxSpeakersSet = parseInt(log, tok, raw, a.MaxSpeakers)
			}
		case "--debug":
			a.Debug = true
		case "--output":
			if raw, ok := cur.value(); ok {
				a.OutputPath = raw
			}
		case "--config":
			if raw, ok := cur.value(); ok {
				a.ConfigPath = raw
			}
		default:
			log.Warn("ignoring unrecognized flag", "flag", tok)
		}
	}

	return a, nil
}

func parseFloat(log *slog.Logger, flag, raw string, fallback float64) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn("flag value is not a number, using default",
			"flag", flag, "value", raw, "default", fallback)
		return fallback, false
	}
	return v, true
}

func parseInt(log *slog.Logger, flag, raw string, fallback int) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("flag value is not an integer, using default",
			"flag", flag, "value", raw, "default", fallback)
		return fallback, false
	}
	return v, true
}
