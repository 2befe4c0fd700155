package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config holds tracer configuration.
type Config struct {
	Level      Level     // tracing level
	Format     Format    // output format (FormatAuto for auto-detection)
	Output     io.Writer // if nil, use OutputPath
	OutputPath string    // file path ("-" or "" for stderr)
}

// New creates a logger based on Config. The returned close function releases
// the output file when New opened one; it is never nil.
func New(cfg Config) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }
	if cfg.Level == LevelOff {
		return zerolog.Nop(), noop, nil
	}
	w, closeFn, err := openOutput(cfg)
	if err != nil {
		return zerolog.Nop(), noop, err
	}
	log := zerolog.New(writerFor(w, detect(cfg.Format, cfg.OutputPath))).
		Level(cfg.Level.Zerolog()).
		With().Timestamp().Logger()
	return log, closeFn, nil
}

// openOutput opens the output writer from config.
func openOutput(cfg Config) (io.Writer, func() error, error) {
	if cfg.Output != nil {
		return cfg.Output, func() error { return nil }, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, func() error { return nil }, nil
	}
	// #nosec G304 -- trace path comes from the command line
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, f.Close, nil
}
