package tasks

import (
	"fmt"

	"github.com/ygrebnov/errorc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ygrebnov/tasks/codec"
	"github.com/ygrebnov/tasks/mailbox"
	"github.com/ygrebnov/tasks/metrics"
)

const tracerName = "github.com/ygrebnov/tasks"

// Mode selects the result-release policy of a dispatcher.
type Mode uint8

const (
	// Ordered releases results in source order.
	Ordered Mode = iota
	// Unordered releases results in completion order.
	Unordered
)

func (m Mode) String() string {
	switch m {
	case Ordered:
		return "ordered"
	case Unordered:
		return "unordered"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// config holds dispatcher configuration.
type config struct {
	// Mode selects the collector.
	// Default: Ordered.
	Mode Mode

	// Codec encodes spawn payloads, results and snapshots.
	// Default: codec.Gob.
	Codec codec.Codec

	// Logger receives debug records for the dispatch loop and error records for worker failures.
	// Default: zap.NewNop().
	Logger *zap.Logger

	// Tracer starts one span per worker.
	// Default: the global otel tracer provider.
	Tracer trace.Tracer

	// Metrics records spawn/complete/fail counts, in-flight level and durations.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider

	// Mailbox is the caller inbox workers report to. When nil, a fresh one is created.
	Mailbox *mailbox.Mailbox
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Mode:    Ordered,
		Codec:   codec.Default(),
		Logger:  zap.NewNop(),
		Tracer:  otel.Tracer(tracerName),
		Metrics: metrics.NoopProvider{},
	}
}

// validateConfig checks invariants options cannot enforce on their own.
func validateConfig(cfg *config) error {
	if cfg.Mode != Ordered && cfg.Mode != Unordered {
		return errorc.With(ErrInvalidConfig, errorc.String("mode", cfg.Mode.String()))
	}
	return nil
}

// buildConfig applies opts over the defaults. Nil options are skipped.
func buildConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Option configures a dispatcher.
type Option func(*config) error

// WithMode selects ordered or unordered result release.
// RunOrdered and RunUnordered override it.
func WithMode(m Mode) Option {
	return func(cfg *config) error { cfg.Mode = m; return nil }
}

// WithCodec replaces the message codec (default gob).
func WithCodec(c codec.Codec) Option {
	return func(cfg *config) error {
		if c == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithCodec requires a non-nil codec"))
		}
		cfg.Codec = c
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithTracer sets the tracer used for worker spans.
func WithTracer(t trace.Tracer) Option {
	return func(cfg *config) error {
		if t == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithTracer requires a non-nil tracer"))
		}
		cfg.Tracer = t
		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithMailbox makes workers report to an existing mailbox instead of a fresh one.
// The dispatcher takes its own reference and releases it on Close.
func WithMailbox(m *mailbox.Mailbox) Option {
	return func(cfg *config) error {
		if m == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMailbox requires a non-nil mailbox"))
		}
		cfg.Mailbox = m
		return nil
	}
}
