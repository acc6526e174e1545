// Package logger provides diagnostic logging for filebuddy.
// Warnings and errors are always written; debug and info messages are
// only written when verbose mode is enabled via the --verbose flag or
// the log.verbose setting.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	file    *lumberjack.Logger
	base    = build()
)

// build assembles the logger from the current settings (caller must hold lock,
// except during package initialisation).
func build() zerolog.Logger {
	var w io.Writer = zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.DateTime,
		NoColor:    true,
	}
	if file != nil {
		w = zerolog.MultiLevelWriter(w, file)
	}

	// Save and load diagnostics ("save completed", "loaded file") are
	// Info, so by default they only show with --verbose.
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// SetFile mirrors log output into a size-rotated file at path.
// An empty path stops file logging.
func SetFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	var closeErr error
	if file != nil {
		closeErr = file.Close()
		file = nil
	}
	if path != "" {
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
	}
	base = build()
	return closeErr
}

// Logger returns the underlying structured logger for callers that want
// to attach fields.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	l := Logger()
	l.Debug().Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	l := Logger()
	l.Debug().Msgf("=== %s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	l := Logger()
	l.Info().Msgf(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	l := Logger()
	l.Warn().Msgf(format, args...)
}

// Error prints an error message.
func Error(err error, format string, args ...any) {
	l := Logger()
	l.Error().Err(err).Msgf(format, args...)
}
