package internal

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logLevel   = LogLevelInfo
	logger     = newLogger(os.Stderr)
	loggerLock sync.RWMutex
)

func newLogger(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(output).With().Timestamp().Logger().Level(toZerolog(LogLevelInfo))
}

func toZerolog(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	loggerLock.Lock()
	defer loggerLock.Unlock()
	logLevel = level
	logger = logger.Level(toZerolog(level))
}

// SetLogLevelString sets the log level from a config value
func SetLogLevelString(level string) {
	switch strings.ToLower(level) {
	case "debug":
		SetLogLevel(LogLevelDebug)
	case "warn", "warning":
		SetLogLevel(LogLevelWarn)
	case "error":
		SetLogLevel(LogLevelError)
	default:
		SetLogLevel(LogLevelInfo)
	}
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output; nil restores stderr
func SetLogOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	loggerLock.Lock()
	defer loggerLock.Unlock()
	logger = newLogger(w).Level(toZerolog(logLevel))
}

// Logger returns the underlying zerolog.Logger for integrations
func Logger() zerolog.Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return logger
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	l := Logger()
	l.Error().Msgf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	l := Logger()
	l.Warn().Msgf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	l := Logger()
	l.Info().Msgf(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	l := Logger()
	l.Debug().Msgf(format, args...)
}
