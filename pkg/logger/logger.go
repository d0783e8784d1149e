package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format represents logger output format.
type Format string

const (
	// FormatJSON outputs structured logs for production log aggregation.
	FormatJSON Format = "json"
	// FormatText outputs human-readable logs for development.
	FormatText Format = "text"
)

// Config is loaded from the environment via pkg/config.
type Config struct {
	Level  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Format Format     `env:"LOG_FORMAT" envDefault:"json"`
}

// Option configures logger creation.
type Option func(*settings)

type settings struct {
	level  slog.Level
	format Format
	output io.Writer
	attrs  []slog.Attr
}

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithFormat sets output format. Panics on an unknown format: logger
// misconfiguration should prevent startup, not surface at runtime.
func WithFormat(f Format) Option {
	return func(s *settings) {
		switch f {
		case FormatJSON, FormatText:
			s.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets a custom output destination, ignoring nil writers.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) {
		s.attrs = append(s.attrs, attrs...)
	}
}

// New creates a slog.Logger from config plus options.
func New(cfg Config, opts ...Option) *slog.Logger {
	s := &settings{
		level:  cfg.Level,
		format: FormatJSON,
		output: os.Stdout,
	}
	if cfg.Format != "" {
		WithFormat(cfg.Format)(s)
	}
	for _, opt := range opts {
		opt(s)
	}

	handlerOpts := &slog.HandlerOptions{Level: s.level}

	var handler slog.Handler
	switch s.format {
	case FormatText:
		handler = slog.NewTextHandler(s.output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(s.output, handlerOpts)
	}
	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}

	return slog.New(handler)
}

// NewDiscard returns a logger that drops everything, for tests.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
