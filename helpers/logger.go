package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/listingwatcher/logger"
	apperrors "sjsage522/listingwatcher/pkg/errors"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger mirrors pipeline errors to the structured logger and appends them
// to an error file, one line per error:
//
//	[2006-01-02 15:04:05] [component] [error type] message
type Logger struct {
	mu        sync.Mutex
	errorFile string
	file      *os.File
}

// NewLogger creates a logger appending to errorFile. An empty path disables
// the file.
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError records err for component
func (l *Logger) LogError(component string, err error) {
	errType := apperrors.TypeOf(err)
	logger.ForPipeline().Error().
		Err(err).
		Str("source", component).
		Str("error_type", string(errType)).
		Bool("retry_next_cycle", apperrors.Retryable(err)).
		Msg("Cycle error")

	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		f, openErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if openErr != nil {
			logger.Warn("failed to open error log %s: %v", l.errorFile, openErr)
			return
		}
		l.file = f
	}

	if errType == "" {
		errType = "unknown"
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.file, "[%s] [%s] [%s] %s\n", timestamp, component, errType, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	logger.ForPipeline().Info().Msgf(format, args...)
}

// Close closes the error file if it was opened
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
