// Package telemetry bootstraps the OpenTelemetry SDK from an
// opentelemetry-configuration YAML file. A missing file means telemetry is
// disabled and the rest of the program runs on no-op providers.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	otelconf "go.opentelemetry.io/contrib/otelconf/v0.3.0"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
)

// SDK wraps the configured OpenTelemetry SDK.
type SDK struct {
	sdk otelconf.SDK
}

// InitFromConfig initializes the SDK from configPath and installs the global
// providers. It returns (nil, nil) when telemetry is disabled: the config
// file is absent, OTEL_SDK_DISABLED=true, or the config says disabled.
func InitFromConfig(ctx context.Context, configPath string, logger *slog.Logger) (*SDK, error) {
	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		return nil, nil
	}

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read otel config: %w", err)
	}

	config, err := otelconf.ParseYAML(configBytes)
	if err != nil {
		return nil, fmt.Errorf("parse otel config: %w", err)
	}
	if config.Disabled != nil && *config.Disabled {
		return nil, nil
	}

	sdk, err := otelconf.NewSDK(
		otelconf.WithOpenTelemetryConfiguration(*config),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel SDK: %w", err)
	}

	otel.SetTracerProvider(sdk.TracerProvider())
	otel.SetMeterProvider(sdk.MeterProvider())
	global.SetLoggerProvider(sdk.LoggerProvider())

	logger.DebugContext(ctx, "telemetry initialized", "config", configPath)

	return &SDK{sdk: sdk}, nil
}

// Shutdown flushes and stops the SDK. Safe to call on a nil receiver.
func (s *SDK) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.sdk.Shutdown(ctx)
}
