package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config holds logger configuration options
type Config struct {
	// Level is the minimum log level to output
	Level string

	// Format is the output format (json, console, auto)
	Format string

	// Output is where to write logs. Defaults to os.Stderr.
	Output io.Writer

	// NoColor disables color output in console mode
	NoColor bool

	// Fields are default fields to include in all logs
	Fields map[string]any
}

// DefaultConfig returns a configuration that logs warnings and above to
// stderr, as console output on a terminal and JSON otherwise.
func DefaultConfig() *Config {
	return &Config{
		Level:   "warn",
		Format:  "auto",
		Output:  os.Stderr,
		NoColor: os.Getenv("NO_COLOR") != "",
		Fields:  make(map[string]any),
	}
}

// NewZerolog builds a zerolog.Logger from cfg.
func NewZerolog(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	logger := zerolog.New(writer(output, cfg)).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	if len(cfg.Fields) > 0 {
		logger = logger.With().Fields(cfg.Fields).Logger()
	}

	return logger
}

func writer(output io.Writer, cfg *Config) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "auto" {
		format = "json"
		if f, ok := output.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "console"
		}
	}

	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}

	return output
}

// ParseLevel parses a log level string, falling back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}

	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}

	return l
}

// OpenOutput resolves an output name: "stderr", "stdout", "discard" or a
// file path, which is opened for appending.
func OpenOutput(name string) (io.Writer, error) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "discard", "none":
		return io.Discard, nil
	}

	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.ConfigFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening log output: %w", err)
	}

	return file, nil
}
