// Package observability installs the process-wide logger. Plain text and JSON
// handlers write to stderr; the otel format bridges slog into an OTel log
// pipeline with severity filtering and a configurable exporter.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// loggerName identifies this application in the OTel log pipeline.
const loggerName = "github.com/hllvc/dashctl"

// ShutdownFunc flushes and tears down the logging pipeline. Call it before
// process exit so batched records are not lost.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger according to format
// (text | json | otel) and, for otel, the exporter (stdout | otlp-http |
// otlp-grpc). OTLP exporters honor the standard OTEL_EXPORTER_OTLP_*
// environment variables for endpoint and headers.
func Instrument(level slog.Level, format, exporter string) (ShutdownFunc, error) {
	switch format {
	case "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return noopShutdown, nil
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return noopShutdown, nil
	case "otel":
		return instrumentOTel(level, exporter)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

func instrumentOTel(level slog.Level, exporter string) (ShutdownFunc, error) {
	ctx := context.Background()

	var (
		exp sdklog.Exporter
		err error
	)
	switch exporter {
	case "", "stdout":
		exp, err = stdoutlog.New()
	case "otlp-http":
		exp, err = otlploghttp.New(ctx)
	case "otlp-grpc":
		exp, err = otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported log exporter: %s", exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exp), severity(level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	global.SetLoggerProvider(provider)
	slog.SetDefault(otelslog.NewLogger(loggerName, otelslog.WithLoggerProvider(provider)))

	return provider.Shutdown, nil
}

// severity maps an slog level onto the minsev filter threshold.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

func noopShutdown(context.Context) error { return nil }
