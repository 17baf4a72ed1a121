package holomem

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/holomem/accumulator"
	"github.com/hupe1980/holomem/cleanup"
	"github.com/hupe1980/holomem/entropy"
	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/resource"
	"github.com/hupe1980/holomem/snapshot"
)

// DefaultDenoiseSteps is the number of rule-232 passes applied to a
// prediction before it is decoded.
const DefaultDenoiseSteps = 2

// Refinement selects how attention refinement takes part in a prediction.
type Refinement uint8

const (
	// RefineIfSharper decodes both the raw and the attention-refined
	// prediction and keeps the more similar match. This is the default.
	// For contexts the memory was trained on the raw prediction is almost
	// always sharper, so in practice this mode usually returns the same
	// match as RefineNever.
	RefineIfSharper Refinement = iota
	// RefineAlways decodes only the attention-refined prediction.
	RefineAlways
	// RefineNever decodes the raw multi-scale prediction.
	RefineNever
)

// String returns the mode name.
func (r Refinement) String() string {
	switch r {
	case RefineIfSharper:
		return "sharper"
	case RefineAlways:
		return "always"
	case RefineNever:
		return "never"
	default:
		return fmt.Sprintf("Refinement(%d)", uint8(r))
	}
}

// ParseRefinement parses a mode name as returned by String.
func ParseRefinement(s string) (Refinement, error) {
	switch s {
	case "", "sharper":
		return RefineIfSharper, nil
	case "always":
		return RefineAlways, nil
	case "never":
		return RefineNever, nil
	default:
		return RefineIfSharper, fmt.Errorf("unknown refinement mode %q", s)
	}
}

type options struct {
	dimension         int
	seed              int64
	hasSeed           bool
	source            entropy.Source
	threshold         float64
	tieBreak          accumulator.TieBreak
	denoiseSteps      int
	order3            bool
	refinement        Refinement
	decodeWorkers     int
	parallelThreshold int
	decodeCacheSize   int
	rc                *resource.Controller
	metricsCollector  MetricsCollector
	logger            *Logger
	snapshotOptions   snapshot.Options
}

// Option configures an Orchestrator at construction or load time.
type Option func(*options)

// WithSeed sets the instance seed mixed into every token embedding.
// Two instances with the same seed embed a token to the same vector.
//
// If no seed is given, one is drawn from the entropy source.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithDimension sets the hypervector width (default hypervector.DefaultDimension).
// Loading a snapshot ignores this option in favor of the stored dimension.
func WithDimension(dim int) Option {
	return func(o *options) {
		o.dimension = dim
	}
}

// WithEntropy sets the source used for the default seed and random tie-breaks.
func WithEntropy(src entropy.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithThreshold sets the minimum similarity (exclusive) for a decoded match.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithTieBreak sets the tie-break policy of every transition memory.
func WithTieBreak(t accumulator.TieBreak) Option {
	return func(o *options) {
		o.tieBreak = t
	}
}

// WithDenoiseSteps sets the number of denoising passes before decoding.
// 0 disables denoising.
func WithDenoiseSteps(n int) Option {
	return func(o *options) {
		o.denoiseSteps = n
	}
}

// WithOrder3 enables the third-order transition memory.
func WithOrder3(enabled bool) Option {
	return func(o *options) {
		o.order3 = enabled
	}
}

// WithRefinement sets the attention refinement mode.
func WithRefinement(mode Refinement) Option {
	return func(o *options) {
		o.refinement = mode
	}
}

// WithDecodeWorkers sets the number of shards used by a parallel decode scan.
func WithDecodeWorkers(n int) Option {
	return func(o *options) {
		o.decodeWorkers = n
	}
}

// WithParallelThreshold sets the vocabulary size above which decoding fans out.
func WithParallelThreshold(n int) Option {
	return func(o *options) {
		o.parallelThreshold = n
	}
}

// WithDecodeCacheSize sets the number of cached decode results. 0 disables the cache.
func WithDecodeCacheSize(n int) Option {
	return func(o *options) {
		o.decodeCacheSize = n
	}
}

// WithResourceController bounds prototype memory and throttles snapshot IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithMetricsCollector sets a custom metrics collector for monitoring operations.
// If nil is passed, metrics collection is disabled (NoopMetricsCollector).
//
// Example:
//
//	metrics := &holomem.BasicMetricsCollector{}
//	hm, _ := holomem.New(holomem.WithMetricsCollector(metrics))
//	// ... learn and predict ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger sets a custom structured logger.
// If nil is passed, logging is disabled (NoopLogger).
//
// Example:
//
//	logger := holomem.NewJSONLogger(slog.LevelDebug)
//	hm, _ := holomem.New(holomem.WithLogger(logger))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel creates a text logger at the given level.
// This is a convenience wrapper around WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSnapshotOptions sets the format and compression used by Save.
func WithSnapshotOptions(opts snapshot.Options) Option {
	return func(o *options) {
		o.snapshotOptions = opts
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		dimension:         hypervector.DefaultDimension,
		threshold:         cleanup.DefaultThreshold,
		tieBreak:          accumulator.TieZero,
		denoiseSteps:      DefaultDenoiseSteps,
		refinement:        RefineIfSharper,
		parallelThreshold: cleanup.DefaultParallelThreshold,
		decodeCacheSize:   cleanup.DefaultCacheSize,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
		snapshotOptions:   snapshot.DefaultOptions,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.source == nil {
		o.source = entropy.Default()
	} else {
		o.source = entropy.NewLocked(o.source)
	}
	if !o.hasSeed {
		o.seed = int64(o.source.Uint64())
	}
	return o
}

func (o *options) validate() error {
	if o.dimension <= 0 {
		return &ErrInvalidDimension{Dimension: o.dimension}
	}
	if o.threshold < 0 || o.threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, o.threshold)
	}
	if o.denoiseSteps < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDenoiseSteps, o.denoiseSteps)
	}
	if o.refinement > RefineNever {
		return fmt.Errorf("invalid refinement mode %d", o.refinement)
	}
	return nil
}
