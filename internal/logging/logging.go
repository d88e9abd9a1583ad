// Package logging builds the command line logger.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/argus-labs/ecsquery/pkg/assert"
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Format is the log output format.
type Format uint8

const (
	FormatUndefined Format = iota // Used as the zero value
	FormatJSON                    // Structured JSON lines
	FormatPretty                  // Human readable console lines
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatPretty:
		return "pretty"
	case FormatUndefined:
		return "undefined"
	default:
		return "undefined"
	}
}

// ParseFormat converts a string to a Format, FormatUndefined if it is not known.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "pretty":
		return FormatPretty
	default:
		return FormatUndefined
	}
}

type config struct {
	// Log format ("json", "pretty").
	Format string `env:"ECSQUERY_LOG_FORMAT" envDefault:"pretty"`
}

// LoadFormat reads the log format from ECSQUERY_LOG_FORMAT.
func LoadFormat() (Format, error) {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		return FormatUndefined, eris.Wrap(err, "failed to parse logging config")
	}

	format := ParseFormat(cfg.Format)
	if format == FormatUndefined {
		return format, eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.Format)
	}
	return format, nil
}

// New creates a logger writing to out in the given format.
func New(out io.Writer, format Format, level zerolog.Level) zerolog.Logger {
	assert.That(format != FormatUndefined, "log format must be set")

	writer := out
	if format == FormatPretty {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}
