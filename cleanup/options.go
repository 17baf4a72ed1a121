package cleanup

import (
	"runtime"

	"github.com/hupe1980/holomem/resource"
)

const (
	// DefaultThreshold is the minimum similarity (exclusive) for a known match.
	DefaultThreshold = 0.40

	// DefaultParallelThreshold is the vocabulary size above which decoding
	// fans out over several workers.
	DefaultParallelThreshold = 2048

	// DefaultCacheSize is the number of decode results kept in the LRU.
	DefaultCacheSize = 1024
)

// Option configures a Memory.
type Option func(*options)

type options struct {
	threshold         float64
	workers           int
	parallelThreshold int
	cacheSize         int
	rc                *resource.Controller
}

// WithThreshold sets the decode threshold.
func WithThreshold(t float64) Option {
	return func(o *options) { o.threshold = t }
}

// WithWorkers sets the number of parallel decode shards.
// Values below 2 disable parallel decoding.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithParallelThreshold sets the vocabulary size above which decoding runs in parallel.
func WithParallelThreshold(n int) Option {
	return func(o *options) { o.parallelThreshold = n }
}

// WithCacheSize sets the decode cache capacity in entries. 0 disables the cache.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithResourceController charges every prototype against rc's memory budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

func applyOptions(optFns []Option) options {
	o := options{
		threshold:         DefaultThreshold,
		workers:           runtime.GOMAXPROCS(0),
		parallelThreshold: DefaultParallelThreshold,
		cacheSize:         DefaultCacheSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
