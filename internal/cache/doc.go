// Package cache provides a size-bounded LRU cache.
//
// The cache charges every entry a caller-supplied cost (usually its size in
// bytes) against a fixed capacity and, optionally, against a shared
// resource.Controller so that cached data counts towards the process memory
// budget. When the controller denies a reservation the entry is simply not
// cached.
package cache
