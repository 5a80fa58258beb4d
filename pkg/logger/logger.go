// Package logger configures the zerolog loggers shared by the server, the CLI
// and the MCP stdio surface.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level and output format of the process logger.
type Config struct {
	Level  string
	Format string // "console" or "json"
	Stdout io.Writer
	Stderr io.Writer
}

// New builds a logger that sends debug/info/warn to Stdout and error and above
// to Stderr. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	stdout, stderr := cfg.Stdout, cfg.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var out, errOut io.Writer = stdout, stderr
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
		errOut = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	}

	writer := zerolog.MultiLevelWriter(
		SpecificLevelWriter{
			Writer: out,
			Levels: []zerolog.Level{
				zerolog.TraceLevel, zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel,
			},
		},
		SpecificLevelWriter{
			Writer: errOut,
			Levels: []zerolog.Level{
				zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel,
			},
		},
	)

	return zerolog.New(writer).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// NewStderr builds a logger that writes every level to stderr. The MCP stdio
// server uses it because stdout carries the protocol stream.
func NewStderr(level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(ParseLevel(level)).
		With().Timestamp().Logger()
}

// ParseLevel converts a textual level into a zerolog level.
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// multilevel writer from https://stackoverflow.com/questions/76858037/how-to-use-zerolog-to-filter-info-logs-to-stdout-and-error-logs-to-stderr
type SpecificLevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w SpecificLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}
