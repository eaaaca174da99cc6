// Package logger wraps zerolog with the component loggers used across the watcher.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger bound to a set of context fields
type Logger struct {
	logger zerolog.Logger
}

// Default is the process-wide logger, set by Init
var Default *Logger

// Init sets up Default on stdout. Production writes JSON lines; anything
// else gets the human-readable console format.
func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter is Init with a caller-supplied destination
func InitWithWriter(out io.Writer) {
	level := levelFromEnv()
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	if !production() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	Default = &Logger{logger: zerolog.New(out).With().Timestamp().Str("service", "listingwatcher").Logger()}
	Default.Debug().Str("level", level.String()).Msg("Logger initialized")
}

func production() bool {
	return os.Getenv("WATCHER_ENVIRONMENT") == "production"
}

// levelFromEnv reads LOG_LEVEL, defaulting to info in production and debug elsewhere
func levelFromEnv() zerolog.Level {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		if production() {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithField returns a child logger carrying key=value
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.logger.Fatal() }

func ensure() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// Debug logs a formatted message at debug level
func Debug(format string, v ...interface{}) {
	ensure().Debug().Msgf(format, v...)
}

// Info logs a formatted message at info level
func Info(format string, v ...interface{}) {
	ensure().Info().Msgf(format, v...)
}

// Warn logs a formatted message at warn level
func Warn(format string, v ...interface{}) {
	ensure().Warn().Msgf(format, v...)
}

// Error logs a formatted message at error level
func Error(format string, v ...interface{}) {
	ensure().Error().Msgf(format, v...)
}

// ForCrawler tags entries with the site being fetched
func ForCrawler(site string) *Logger {
	return ensure().WithField("crawler", site)
}

func ForPipeline() *Logger { return component("pipeline") }
func ForNotifier() *Logger { return component("notifier") }
func ForStore() *Logger    { return component("seen_store") }
func ForControl() *Logger  { return component("control") }

func component(name string) *Logger {
	return ensure().WithField("component", name)
}
