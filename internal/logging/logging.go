// Package logging configures the zerolog logger the driver uses to
// report progress and per-function warnings (the core packages do not
// log; they return errors), grounded on the same library the retrieved
// debug-symbolizer example threads through its own analysis pipeline.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a console-writer zerolog.Logger at the level named by
// levelName ("debug", "info", "warn", or "error"; anything else falls
// back to info).
func New(levelName string) zerolog.Logger {
	level := parseLevel(levelName)
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func parseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
