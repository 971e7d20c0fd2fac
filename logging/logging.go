package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls where diagnostics go and how much of them is shown
type Options struct {
	Level string    // debug, info, warn or error
	File  string    // optional log file, written in addition to Out
	Quiet bool      // suppress warnings (errors are still shown)
	Out   io.Writer // console destination, defaults to os.Stderr
}

var (
	logger  = newConsoleLogger(os.Stderr, zerolog.InfoLevel)
	logFile *os.File
	mu      sync.Mutex
)

// SetupLogger configures the package logger. Calling it again replaces the
// previous configuration and closes any previously opened log file.
func SetupLogger(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := parseLevel(opts.Level)
	if opts.Quiet && level < zerolog.ErrorLevel {
		level = zerolog.ErrorLevel
	}

	var writer io.Writer = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		// The file gets structured JSON lines, the console stays human readable
		writer = zerolog.MultiLevelWriter(writer, f)
	}

	logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()

	if logFile != nil {
		logger.Debug().Msgf("--- imagededup log started at %s ---", time.Now().Format(time.RFC3339))
	}
	return nil
}

// CloseLogger closes the log file, if any, and resets to console logging
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = newConsoleLogger(os.Stderr, zerolog.InfoLevel)
}

// current returns a snapshot of the package logger
func current() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := logger
	return &l
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	current().Info().Msgf(format, args...)
}

// DebugLog logs a message only visible at debug level
func DebugLog(format string, args ...interface{}) {
	current().Debug().Msgf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	current().Error().Msgf(format, args...)
}

// LogWarning logs a warning message, suppressed in quiet mode
func LogWarning(format string, args ...interface{}) {
	current().Warn().Msgf(format, args...)
}

// LogImageProcessed logs the outcome of fingerprinting one image
func LogImageProcessed(path string, success bool, errMsg string) {
	if success {
		current().Debug().Str("path", path).Msg("fingerprinted")
		return
	}
	current().Warn().Str("path", path).Str("error", errMsg).Msg("failed to compute fingerprint")
}

func newConsoleLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
