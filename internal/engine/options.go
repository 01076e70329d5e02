package engine

import (
	"go.uber.org/zap"

	"github.com/roach88/tabled/internal/config"
	"github.com/roach88/tabled/internal/kb"
	"github.com/roach88/tabled/internal/metrics"
)

const (
	// DefaultMaxDepth is the number of nested relation calls allowed before
	// evaluation switches to bottom-up flattening.
	DefaultMaxDepth = 512

	// DefaultMaxIterations bounds the fixpoint iterations of one call.
	DefaultMaxIterations = 64

	// DefaultFlattenSteps bounds the chain entries one flatten pass may
	// resolve before giving up as unknown.
	DefaultFlattenSteps = 1 << 16
)

// Option configures a run.
type Option func(*settings)

type settings struct {
	maxDepth      int
	maxIterations int
	flattenSteps  int
	log           *zap.Logger
	metrics       *metrics.Metrics
	ids           RunIDGenerator
	kbOptions     []kb.Option
}

func newSettings(opts []Option) settings {
	s := settings{
		maxDepth:      DefaultMaxDepth,
		maxIterations: DefaultMaxIterations,
		flattenSteps:  DefaultFlattenSteps,
		log:           zap.NewNop(),
		ids:           UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// flattenDepth is the stack height at or below which overflow is resolved.
func (s settings) flattenDepth() int { return s.maxDepth / 2 }

// WithMaxDepth sets the depth limit. Values below 2 are ignored.
func WithMaxDepth(n int) Option {
	return func(s *settings) {
		if n >= 2 {
			s.maxDepth = n
		}
	}
}

// WithMaxIterations sets the fixpoint iteration bound.
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithFlattenSteps sets the flatten step bound.
func WithFlattenSteps(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.flattenSteps = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records engine counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithRunIDGenerator replaces the UUIDv7 run identifiers.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(s *settings) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithKBOptions configures knowledge bases created or derived by the run.
func WithKBOptions(opts ...kb.Option) Option {
	return func(s *settings) { s.kbOptions = append(s.kbOptions, opts...) }
}

// WithConfig applies the engine and cache sections of cfg.
func WithConfig(cfg config.Config) Option {
	return func(s *settings) {
		WithMaxDepth(cfg.Engine.MaxDepth)(s)
		WithMaxIterations(cfg.Engine.MaxIterations)(s)
		WithFlattenSteps(cfg.Engine.FlattenSteps)(s)
		s.kbOptions = append(s.kbOptions, kb.WithLimits(kb.Limits{
			HotLimit:       cfg.Cache.HotLimit,
			ColdLimit:      cfg.Cache.ColdLimit,
			PromoteUses:    cfg.Cache.PromoteUses,
			SignatureLimit: cfg.Cache.SignatureLimit,
		}))
	}
}
