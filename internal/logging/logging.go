// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects level, format and an optional log file.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DefaultConfig logs info and above to the console.
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatConsole}
}

// New builds a logger writing to out and, when cfg.File is set, appending
// to that file as well. The returned close func releases the file.
func New(cfg Config, out io.Writer) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	var console io.Writer
	switch cfg.Format {
	case "", FormatConsole:
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	case FormatJSON:
		console = out
	default:
		return zerolog.Nop(), nil, fmt.Errorf("log format %q: want %s or %s", cfg.Format, FormatConsole, FormatJSON)
	}

	closeFn := func() error { return nil }
	writer := console

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		fileWriter := zerolog.ConsoleWriter{Out: f, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
		writer = zerolog.MultiLevelWriter(console, fileWriter)
		closeFn = f.Close
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
	return logger, closeFn, nil
}
