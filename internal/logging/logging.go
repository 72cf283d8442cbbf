package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger for interactive operator use: console output on
// stderr by default, JSON when requested for unattended runs.
func New(level string, jsonOutput bool) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	if jsonOutput {
		return zerolog.New(os.Stderr).Level(parsed).With().Timestamp().Logger()
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}
