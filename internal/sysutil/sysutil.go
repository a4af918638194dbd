// Package sysutil configures process-wide concerns shared by the entrypoint
// and tests: the global zerolog level and output.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level. Accepts debug, info, warn
// (or warning), error, fatal and panic, case-insensitively; anything else
// selects info. It returns the level applied.
func SetLogLevel(lvl string) zerolog.Level {
	level := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	case "panic":
		level = zerolog.PanicLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

// SetupLogging installs the global logger writing to out: JSON lines by
// default, a human-readable console format when pretty is set.
func SetupLogging(out io.Writer, level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	SetLogLevel(level)
	if pretty {
		// Colors only on a real file (terminal); buffers and pipes get plain text.
		_, isFile := out.(*os.File)
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: !isFile}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}
