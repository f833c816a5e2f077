// Package logging wires up the process-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Init configures the global zerolog logger. On an interactive terminal it
// uses zerolog's pretty ConsoleWriter; otherwise it emits structured JSON,
// the shape a container/systemd log collector expects.
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// Component returns a child logger tagged with a component name, the
// convention used throughout this codebase for per-subsystem logging.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
