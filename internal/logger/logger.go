// Package logger builds the zerolog loggers used by the service.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a structured logger writing to w. Development environments get
// human readable console output, everything else gets JSON.
func New(env, level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if env == "development" || env == "dev" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", "journal").
		Logger()
}

// GooseLogger forwards goose migration output to zerolog
type GooseLogger struct {
	l zerolog.Logger
}

// Goose adapts l to the goose.Logger interface
func Goose(l zerolog.Logger) *GooseLogger {
	return &GooseLogger{l: l.With().Str("component", "migrate").Logger()}
}

func (g *GooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info().Msgf(format, v...)
}

// Fatalf logs at error level and panics instead of exiting, so callers can
// recover and report.
func (g *GooseLogger) Fatalf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	g.l.Error().Msg(msg)
	panic(msg)
}
