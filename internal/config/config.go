// Package config holds the diarization run settings and the optional YAML
// file describing the engine backend and model source.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AutoSentinel is the value the CLI surface and the engine wire formats use
// for "determine automatically" / "unlimited".
const AutoSentinel = -1

// DefaultThreshold is the clustering threshold applied when none is given.
const DefaultThreshold = 0.7

// Clusters is either automatic or a fixed count. The zero value is automatic,
// so the -1 sentinel never leaks past the process boundaries.
type Clusters struct {
	fixed bool
	n     int
}

func AutoClusters() Clusters { return Clusters{} }

func FixedClusters(n int) Clusters { return Clusters{fixed: true, n: n} }

// ClustersFromSentinel converts a value in the -1-means-auto convention.
// Any negative value counts as automatic.
func ClustersFromSentinel(n int) Clusters {
	if n < 0 {
		return AutoClusters()
	}
	return FixedClusters(n)
}

func (c Clusters) Automatic() bool { return !c.fixed }

// Fixed returns the count and whether one was set.
func (c Clusters) Fixed() (int, bool) { return c.n, c.fixed }

// SentinelValue renders the value back into the -1-means-auto convention for
// the CLI and the engine wire formats.
func (c Clusters) SentinelValue() int {
	if !c.fixed {
		return AutoSentinel
	}
	return c.n
}

func (c Clusters) String() string {
	if !c.fixed {
		return "auto"
	}
	return strconv.Itoa(c.n)
}

// Diarization holds the settings for one run. Build it once and treat it as
// read-only.
type Diarization struct {
	ClusteringThreshold float64
	NumClusters         Clusters
	MaxSpeakers         Clusters
	Debug               bool
}

func DefaultDiarization() Diarization {
	return Diarization{
		ClusteringThreshold: DefaultThreshold,
		NumClusters:         AutoClusters(),
		MaxSpeakers:         AutoClusters(),
	}
}

// FromFlags maps resolved flag values into a run configuration. The cluster
// arguments use the -1 sentinel convention of the CLI. No range validation
// happens here: an out-of-range threshold is accepted as-is.
func FromFlags(threshold float64, numClusters, maxSpeakers int, debug bool) Diarization {
	return Diarization{
		ClusteringThreshold: threshold,
		NumClusters:         ClustersFromSentinel(numClusters),
		MaxSpeakers:         ClustersFromSentinel(maxSpeakers),
		Debug:               debug,
	}
}

// File is the optional YAML configuration for engine and model selection.
// Diarization values from the file sit between the built-in defaults and the
// command-line flags.
type File struct {
	Engine struct {
		// Backend selects the engine implementation: "exec" (default) or
		// "pyannote".
		Backend    string `yaml:"backend"`
		BinaryPath string `yaml:"binary_path"`
		BaseURL    string `yaml:"base_url"`
	} `yaml:"engine"`

	Model struct {
		Path     string `yaml:"path"`
		URL      string `yaml:"url"`
		SHA256   string `yaml:"sha256"`
		CacheDir string `yaml:"cache_dir"`
	} `yaml:"model"`

	Diarization struct {
		Threshold   *float64 `yaml:"threshold"`
		NumClusters *int     `yaml:"num_clusters"`
		MaxSpeakers *int     `yaml:"max_speakers"`
	} `yaml:"diarization"`
}

func LoadFile(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, err
	}
	return f, nil
}
