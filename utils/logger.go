package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger = newLogger(os.Stdout, "text")

func newLogger(out io.Writer, format string) zerolog.Logger {
	if strings.ToLower(format) == "json" {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()
}

// InitLogger replaces the package logger. Unknown levels fall back to info.
func InitLogger(level, format string) {
	SetOutput(os.Stdout, format)
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger = logger.Level(lvl)
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(out io.Writer, format string) {
	logger = newLogger(out, format)
}

// Logger exposes the underlying logger for structured fields.
func Logger() *zerolog.Logger {
	return &logger
}

func Debug(format string, a ...interface{}) {
	logger.Debug().Msg(fmt.Sprintf(format, a...))
}

func Info(format string, a ...interface{}) {
	logger.Info().Msg(fmt.Sprintf(format, a...))
}

func Success(format string, a ...interface{}) {
	logger.Info().Str("status", "ok").Msg(fmt.Sprintf(format, a...))
}

func Warn(format string, a ...interface{}) {
	logger.Warn().Msg(fmt.Sprintf(format, a...))
}

func Error(format string, a ...interface{}) {
	logger.Error().Msg(fmt.Sprintf(format, a...))
}

func Section(title string) {
	logger.Info().Msg(fmt.Sprintf("══════════ %s ══════════", title))
}

// Elapsed logs how long a phase took; use with defer.
func Elapsed(name string, start time.Time) {
	logger.Debug().Str("phase", name).Dur("elapsed", time.Since(start)).Msg("phase finished")
}
