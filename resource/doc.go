// Package resource implements the Controller that governs resources shared
// by one or more engines.
//
//   - Memory: prototype vectors and decode cache entries reserve their size
//     before they are stored. Reservations fail once MemoryLimitBytes is reached.
//   - IO slots: at most MaxConcurrentIO snapshot saves or loads run at once.
//   - IO bandwidth: snapshot streams are throttled by a token bucket.
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    MaxConcurrentIO:    2,
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//
//	if err := rc.AcquireIOSlot(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseIOSlot()
//
//	w := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// Large reads and writes are split into chunks no larger than the limiter
// burst, so a single snapshot write never exceeds the configured rate.
//
// A nil *Controller is valid and imposes no limits.
package resource
