package calc

import (
	"io"
	"log/slog"
	"time"

	"github.com/midbel/xlcalc/formula/eval"
)

type Option func(*Engine)

func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s.withDefaults()
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithStore(s Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

func WithRegistry(reg *eval.Registry) Option {
	return func(e *Engine) {
		e.funcs = reg
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithRand(rand func() float64) Option {
	return func(e *Engine) {
		e.rand = rand
	}
}

// WithName sets the name of the workbook. References qualified by this
// name are treated as local.
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
