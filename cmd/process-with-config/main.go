package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/speechlab/go-diarizer/internal/audio"
	"github.com/speechlab/go-diarizer/internal/cli"
	"github.com/speechlab/go-diarizer/internal/config"
	"github.com/speechlab/go-diarizer/internal/diarizer"
	"github.com/speechlab/go-diarizer/internal/diarizer/execdiar"
	"github.com/speechlab/go-diarizer/internal/diarizer/pyannote"
	"github.com/speechlab/go-diarizer/internal/modelpack"
	"github.com/speechlab/go-diarizer/internal/pipeline"
	"github.com/speechlab/go-diarizer/internal/telemetry"
	"github.com/speechlab/go-diarizer/pkg/diarreport"
)

const otelConfigPath = "otel.yaml"

const defaultModelPath = "models/segmentation.onnx"

func main() {
	args, err := cli.Parse(os.Args[1:], newLogger(false))
	if err != nil {
		fmt.Fprint(os.Stderr, cli.Usage)
		os.Exit(1)
	}

	log := newLogger(args.Debug)
	ctx := context.Background()

	sdk, err := telemetry.InitFromConfig(ctx, otelConfigPath, log)
	if err != nil {
		log.Warn("telemetry disabled", "error", err)
	}
	defer sdk.Shutdown(ctx)

	var fileCfg config.File
	if args.ConfigPath != "" {
		fileCfg, err = config.LoadFile(args.ConfigPath)
		if err != nil {
			fatalf(log, "load config %s: %v", args.ConfigPath, err)
		}
	}

	cfg := buildConfig(args, fileCfg)
	provider, loader, engine := assemble(fileCfg)

	runner := pipeline.NewRunner(provider, loader, engine, log)
	result, err := runner.Run(ctx, args.AudioPath, cfg)
	if err != nil {
		fatalf(log, "%v", err)
	}

	metrics := diarreport.ComputeMetrics(result.AudioDuration, result.ProcessingTime)
	report := diarreport.Build(diarreport.VideoID(args.AudioPath), metrics, result.Segments)

	if err := diarreport.Write(report, args.OutputPath, os.Stdout); err != nil {
		fatalf(log, "write report: %v", err)
	}

	log.Info("done",
		"video_id", report.VideoID,
		"duration_s", report.Duration,
		"processing_s", report.ProcessingTime,
		"rtfx", report.RTFx,
		"speakers", len(report.Speakers),
	)
}

// buildConfig layers the run settings: built-in defaults, then the config
// file, then flags the user actually set.
func buildConfig(args cli.Args, f config.File) config.Diarization {
	threshold := config.DefaultThreshold
	numClusters := config.AutoSentinel
	maxSpeakers := config.AutoSentinel

	if f.Diarization.Threshold != nil {
		threshold = *f.Diarization.Threshold
	}
	if f.Diarization.NumClusters != nil {
		numClusters = *f.Diarization.NumClusters
	}
	if f.Diarization.MaxSpeakers != nil {
		maxSpeakers = *f.Diarization.MaxSpeakers
	}

	if args.ThresholdSet {
		threshold = args.Threshold
	}
	if args.NumClustersSet {
		numClusters = args.NumClusters
	}
	if args.MaxSpeakersSet {
		maxSpeakers = args.MaxSpeakers
	}

	return config.FromFlags(threshold, numClusters, maxSpeakers, args.Debug)
}

func assemble(f config.File) (modelpack.Provider, audio.Loader, diarizer.Engine) {
	loader := audio.NewWavLoader()

	if f.Engine.Backend == "pyannote" {
		engine := pyannote.New(f.Engine.BaseURL)
		return pyannote.NewModelProvider(engine), loader, engine
	}

	var provider modelpack.Provider
	if f.Model.URL != "" {
		provider = modelpack.NewDownloadProvider(f.Model.URL, f.Model.SHA256, cacheDir(f.Model.CacheDir))
	} else {
		modelPath := f.Model.Path
		if modelPath == "" {
			modelPath = defaultModelPath
		}
		provider = modelpack.NewPathProvider(modelPath)
	}
	return provider, loader, execdiar.New(f.Engine.BinaryPath)
}

func cacheDir(configured string) string {
	if configured != "" {
		return configured
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ".cache"
	}
	return filepath.Join(base, "go-diarizer")
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func fatalf(log *slog.Logger, format string, args ...any) {
	log.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
