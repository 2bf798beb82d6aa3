// Package sysutil holds small process-level helpers used by the server
// entrypoint.
package sysutil

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging applies the configured level to the global zerolog logger
// and, when pretty is set, swaps in a human-readable console writer for local
// development. Deployed instances keep the default JSON output.
func ConfigureLogging(level string, pretty bool) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// ParseLevel maps a LOG_LEVEL string to a zerolog level. "warning" is
// accepted as an alias for "warn"; empty or unrecognized values fall back
// to info rather than failing startup.
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
