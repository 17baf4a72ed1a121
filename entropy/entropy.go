// Package entropy provides the pseudo-random sources consumed by hypervector
// generation and noise injection.
//
// Sources are injected explicitly (there is no process-wide generator), so a
// caller that needs reproducible behavior can pass a seeded source and a caller
// that wants "live" vectors can pass Chaos.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source produces uniformly distributed 64-bit values.
//
// The method set matches math/rand/v2.Source, so any Source can be wrapped with
// rand.New for bounded draws.
type Source interface {
	Uint64() uint64
}

// golden is the SplitMix64 increment (2^64 / phi).
const golden = 0x9e3779b97f4a7c15

// SplitMix64 is the splittable generator used for deterministic embeddings.
// It is not safe for concurrent use.
type SplitMix64 struct {
	state uint64
}

// NewSplitMix64 creates a generator seeded with seed.
func NewSplitMix64(seed int64) *SplitMix64 {
	return &SplitMix64{state: uint64(seed)}
}

// Uint64 returns the next value in the sequence.
func (s *SplitMix64) Uint64() uint64 {
	s.state += golden
	return mix64(s.state)
}

// Split returns a new generator whose sequence is independent of s.
func (s *SplitMix64) Split() *SplitMix64 {
	return &SplitMix64{state: mix64(s.Uint64())}
}

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NewPCG returns a PCG source seeded with seed, for callers that want
// reproducible noise. Default does not use it.
func NewPCG(seed uint64) Source {
	return rand.NewPCG(seed, seed^golden)
}

// Default returns a ChaCha8 source keyed from the operating system's CSPRNG.
// The source is wrapped with Locked and may be shared.
func Default() Source {
	var key [32]byte
	if _, err := crand.Read(key[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(err)
	}
	return &Locked{src: rand.NewChaCha8(key)}
}

// Locked serializes access to an underlying Source.
type Locked struct {
	mu  sync.Mutex
	src Source
}

// NewLocked wraps src for concurrent use.
func NewLocked(src Source) *Locked {
	if l, ok := src.(*Locked); ok {
		return l
	}
	return &Locked{src: src}
}

// Uint64 implements Source.
func (l *Locked) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint64()
}

// NewRand wraps src in a *rand.Rand for bounded draws (IntN, Float64, ...).
func NewRand(src Source) *rand.Rand {
	return rand.New(src)
}

// Seed64 reads a random 64-bit seed from the operating system's CSPRNG.
func Seed64() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
