package entropy

import (
	"crypto/sha512"
	"encoding/binary"
	"sync"
	"time"
)

// Chaos is a hash-chained generator whose state evolves with every draw.
//
// Each refill hashes the previous state together with a clock jitter and the
// generation counter, so the output is not reproducible. Use it for "live"
// vectors; use SplitMix64 or NewPCG when results must be repeatable.
//
// Chaos is safe for concurrent use.
type Chaos struct {
	mu         sync.Mutex
	state      [sha512.Size]byte
	generation uint64
	buf        []byte
}

// NewChaos creates a Chaos generator seeded from the clock and the OS CSPRNG.
func NewChaos() *Chaos {
	c := &Chaos{}
	var seed [16]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint64(seed[8:], uint64(Seed64()))
	c.state = sha512.Sum512(seed[:])
	return c
}

// NewChaosFromSeed creates a Chaos generator whose initial state is derived
// from seed. Draws still mix in clock jitter.
func NewChaosFromSeed(seed string) *Chaos {
	c := &Chaos{}
	c.state = sha512.Sum512([]byte(seed))
	return c
}

// Uint64 implements Source.
func (c *Chaos) Uint64() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buf) < 8 {
		c.evolve()
	}
	v := binary.LittleEndian.Uint64(c.buf)
	c.buf = c.buf[8:]
	return v
}

// Generation returns the number of state evolutions so far.
func (c *Chaos) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Chaos) evolve() {
	var tail [16]byte
	binary.LittleEndian.PutUint64(tail[:8], uint64(time.Now().UnixNano()%999))
	binary.LittleEndian.PutUint64(tail[8:], c.generation)

	h := sha512.New()
	_, _ = h.Write(c.state[:])
	_, _ = h.Write(tail[:])
	next := h.Sum(nil)

	// The state climbs by the new digest instead of being replaced.
	var carry uint16
	for i := len(c.state) - 1; i >= 0; i-- {
		sum := uint16(c.state[i]) + uint16(next[i]) + carry
		c.state[i] = byte(sum)
		carry = sum >> 8
	}

	c.generation++
	c.buf = next
}
