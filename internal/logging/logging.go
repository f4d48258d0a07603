// Package logging builds the application logger.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options holds logger construction settings.
type Options struct {
	Level      string // trace, debug, info, warn, error
	Format     string // "console" or "json"
	Output     string // "stdout", "stderr" or "file"
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultOptions returns console logging at info level.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		MaxSizeMB:  20,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

// New creates the application logger.
func New(opts Options) zerolog.Logger {
	out := destination(opts)

	var writer io.Writer = out
	if opts.Format != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if level, ok := i.(string); ok {
					switch level {
					case "trace":
						return "\033[35mTRC\033[0m"
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return level
					}
				}
				return "???"
			},
		}
	}

	zerolog.SetGlobalLevel(parseLevel(opts.Level))

	return zerolog.New(writer).With().Timestamp().Logger()
}

func destination(opts Options) io.Writer {
	switch opts.Output {
	case "file":
		if opts.FilePath == "" {
			return os.Stdout
		}
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel drops the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

type contextKey string

const loggerKey contextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithSymbol tags log entries with the symbol being processed.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithRun tags log entries with the run identifier.
func WithRun(logger zerolog.Logger, runID int64) zerolog.Logger {
	return logger.With().Int64("run_id", runID).Logger()
}

// LogRunStarted records the start of an evaluation run.
func LogRunStarted(logger zerolog.Logger, asOf time.Time, universe int) {
	logger.Info().
		Str("as_of", asOf.Format("2006-01-02")).
		Int("universe", universe).
		Msg("evaluation run started")
}

// LogRunCompleted records the outcome of an evaluation run.
func LogRunCompleted(logger zerolog.Logger, actionable, evaluated, skipped int, elapsed time.Duration) {
	logger.Info().
		Int("actionable", actionable).
		Int("evaluated", evaluated).
		Int("skipped", skipped).
		Dur("elapsed", elapsed).
		Msg("evaluation run completed")
}

// LogSymbolSkipped records a symbol excluded from the run.
func LogSymbolSkipped(logger zerolog.Logger, symbol, reason string) {
	logger.Warn().
		Str("symbol", symbol).
		Str("reason", reason).
		Msg("symbol skipped")
}

// LogReportWritten records a report artifact landing on disk.
func LogReportWritten(logger zerolog.Logger, format, path string) {
	logger.Info().
		Str("format", format).
		Str("path", path).
		Msg("report written")
}

// LogEmailSent records a successful report delivery.
func LogEmailSent(logger zerolog.Logger, subject string, recipients int) {
	logger.Info().
		Str("subject", subject).
		Int("recipients", recipients).
		Msg("report delivered")
}
