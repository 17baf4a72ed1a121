package holomem

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    learnCounter     prometheus.Counter
//	    predictHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordLearn(tokens int, duration time.Duration, err error) {
//	    p.learnCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordLearn is called after each learned sequence.
	// tokens is the sequence length, err is nil if successful.
	RecordLearn(tokens int, duration time.Duration, err error)

	// RecordPredict is called after each prediction.
	// known reports whether the prediction decoded above the threshold.
	RecordPredict(contextLen int, known bool, duration time.Duration, err error)

	// RecordDecode is called for every cleanup lookup, including both
	// candidates of a sharpness comparison.
	RecordDecode(vocabulary int, duration time.Duration)

	// RecordSnapshot is called after each save or load.
	// bytes is the encoded snapshot size.
	RecordSnapshot(load bool, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLearn(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordPredict(int, bool, time.Duration, error)    {}
func (NoopMetricsCollector) RecordDecode(int, time.Duration)                  {}
func (NoopMetricsCollector) RecordSnapshot(bool, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LearnCount        atomic.Int64
	LearnErrors       atomic.Int64
	LearnTokens       atomic.Int64
	PredictCount      atomic.Int64
	PredictErrors     atomic.Int64
	PredictUnknown    atomic.Int64
	PredictTotalNanos atomic.Int64
	DecodeCount       atomic.Int64
	DecodeTotalNanos  atomic.Int64
	SaveCount         atomic.Int64
	LoadCount         atomic.Int64
	SnapshotErrors    atomic.Int64
	SnapshotBytes     atomic.Int64
}

// RecordLearn implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLearn(tokens int, _ time.Duration, err error) {
	b.LearnCount.Add(1)
	if err != nil {
		b.LearnErrors.Add(1)
		return
	}
	b.LearnTokens.Add(int64(tokens))
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(_ int, known bool, duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PredictErrors.Add(1)
		return
	}
	if !known {
		b.PredictUnknown.Add(1)
	}
}

// RecordDecode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecode(_ int, duration time.Duration) {
	b.DecodeCount.Add(1)
	b.DecodeTotalNanos.Add(duration.Nanoseconds())
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(load bool, bytes int64, _ time.Duration, err error) {
	if load {
		b.LoadCount.Add(1)
	} else {
		b.SaveCount.Add(1)
	}
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LearnCount:      b.LearnCount.Load(),
		LearnErrors:     b.LearnErrors.Load(),
		LearnTokens:     b.LearnTokens.Load(),
		PredictCount:    b.PredictCount.Load(),
		PredictErrors:   b.PredictErrors.Load(),
		PredictUnknown:  b.PredictUnknown.Load(),
		PredictAvgNanos: avgNanos(b.PredictTotalNanos.Load(), b.PredictCount.Load()),
		DecodeCount:     b.DecodeCount.Load(),
		DecodeAvgNanos:  avgNanos(b.DecodeTotalNanos.Load(), b.DecodeCount.Load()),
		SaveCount:       b.SaveCount.Load(),
		LoadCount:       b.LoadCount.Load(),
		SnapshotErrors:  b.SnapshotErrors.Load(),
		SnapshotBytes:   b.SnapshotBytes.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LearnCount      int64
	LearnErrors     int64
	LearnTokens     int64
	PredictCount    int64
	PredictErrors   int64
	PredictUnknown  int64
	PredictAvgNanos int64
	DecodeCount     int64
	DecodeAvgNanos  int64
	SaveCount       int64
	LoadCount       int64
	SnapshotErrors  int64
	SnapshotBytes   int64
}
