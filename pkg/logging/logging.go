// Package logging builds the zerolog logger used across the module and adapts
// it to Logger, the leveled capability that middleware log through.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options configures New
type Options struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console or json
	File   string `yaml:"file"`   // Optional log file, written in addition to Out
}

// SetDefaults fills empty fields
func (o *Options) SetDefaults() {
	if o.Level == "" {
		o.Level = "info"
	}
	if o.Format == "" {
		o.Format = "console"
	}
}

// New builds a logger writing to out (stdout when nil) and, if set, to
// Options.File. The returned closer releases the log file; it is a no-op
// when there is none.
func New(opts Options, out io.Writer) (zerolog.Logger, io.Closer, error) {
	opts.SetDefaults()

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	if out == nil {
		out = os.Stdout
	}

	// set up log output to out; also output to the log file if specified
	outputs := make([]io.Writer, 0, 2)
	switch opts.Format {
	case "console":
		outputs = append(outputs, zerolog.ConsoleWriter{Out: out})
	case "json":
		outputs = append(outputs, out)
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log format %q (want console or json)", opts.Format)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("cannot open log file: %w", err)
		}
		outputs = append(outputs, f)
		closer = f
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(outputs...)).
		Level(level).
		With().Timestamp().Logger()

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
