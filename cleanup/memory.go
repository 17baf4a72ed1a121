package cleanup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/internal/cache"
)

// Unknown is returned by Decode when no prototype clears the threshold.
const Unknown = "<unknown>"

// ErrVocabularyFull is returned by Memorize when the memory budget cannot
// hold another prototype.
var ErrVocabularyFull = errors.New("cleanup: vocabulary memory budget exhausted")

// Match is a decode result.
type Match struct {
	Symbol     string
	Similarity float64
	// Known reports whether Similarity is strictly above the threshold.
	Known bool
}

// Entry is a stored prototype.
type Entry struct {
	Symbol string
	Vector hypervector.Vector
}

type slot struct {
	symbol string
	vec    hypervector.Vector
}

// Memory is a symbol -> prototype table. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	dim   int
	opts  options
	slots []slot
	ids   map[string]uint32
	live  *roaring.Bitmap
	cache *cache.LRU[string, Match]
}

// New creates an empty cleanup memory for vectors of dimension dim.
func New(dim int, optFns ...Option) *Memory {
	if dim <= 0 {
		panic(&hypervector.ErrInvalidDimension{Dimension: dim})
	}
	o := applyOptions(optFns)

	m := &Memory{
		dim:  dim,
		opts: o,
		ids:  make(map[string]uint32),
		live: roaring.New(),
	}
	if o.cacheSize > 0 {
		keyBytes := int64(hypervector.NumWords(dim) * 8)
		m.cache = cache.New[string, Match](int64(o.cacheSize)*keyBytes, func(k string, _ Match) int64 {
			return int64(len(k))
		}, o.rc)
	}
	return m
}

// Dimension returns the prototype width.
func (m *Memory) Dimension() int { return m.dim }

// Threshold returns the decode threshold.
func (m *Memory) Threshold() float64 { return m.opts.threshold }

func (m *Memory) prototypeBytes() int64 {
	return int64(hypervector.NumWords(m.dim) * 8)
}

// Memorize stores v under symbol. A new symbol takes the next insertion slot;
// an existing symbol is overwritten in place and keeps its slot.
func (m *Memory) Memorize(symbol string, v hypervector.Vector) error {
	if v.Dimension() != m.dim {
		return &hypervector.ErrDimensionMismatch{Expected: m.dim, Actual: v.Dimension()}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.ids[symbol]; ok {
		m.slots[id].vec = v.Clone()
		m.invalidate()
		return nil
	}

	if !m.reserve() {
		return fmt.Errorf("%w: %d prototypes stored", ErrVocabularyFull, m.live.GetCardinality())
	}

	id := uint32(len(m.slots))
	m.slots = append(m.slots, slot{symbol: symbol, vec: v.Clone()})
	m.ids[symbol] = id
	m.live.Add(id)
	m.invalidate()
	return nil
}

// reserve charges one prototype against the budget, dropping the decode
// cache once if that frees enough room.
func (m *Memory) reserve() bool {
	rc := m.opts.rc
	if rc.TryAcquireMemory(m.prototypeBytes()) {
		return true
	}
	if m.cache == nil || m.cache.Len() == 0 {
		return false
	}
	m.cache.Purge()
	return rc.TryAcquireMemory(m.prototypeBytes())
}

// Decode returns the best matching symbol, or Unknown.
func (m *Memory) Decode(v hypervector.Vector) string {
	return m.DecodeMatch(v).Symbol
}

// DecodeMatch returns the best match with its similarity. When nothing
// clears the threshold the symbol is Unknown and Similarity is the best score seen.
func (m *Memory) DecodeMatch(v hypervector.Vector) Match {
	if v.Dimension() != m.dim {
		panic(&hypervector.ErrDimensionMismatch{Expected: m.dim, Actual: v.Dimension()})
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var key string
	if m.cache != nil {
		key = cacheKey(v)
		if match, ok := m.cache.Get(key); ok {
			return match
		}
	}

	match := Match{Symbol: Unknown}
	if id, sim, ok := m.best(v); ok {
		match.Similarity = sim
		if sim > m.opts.threshold {
			match.Symbol = m.slots[id].symbol
			match.Known = true
		}
	}

	if m.cache != nil {
		m.cache.Set(key, match)
	}
	return match
}

type candidate struct {
	id  uint32
	sim float64
	ok  bool
}

// better reports whether c beats other. Equal scores keep the lower id.
func (c candidate) better(other candidate) bool {
	if !other.ok {
		return c.ok
	}
	return c.ok && (c.sim > other.sim || (c.sim == other.sim && c.id < other.id))
}

func (m *Memory) best(v hypervector.Vector) (uint32, float64, bool) {
	ids := m.live.ToArray()
	if len(ids) == 0 {
		return 0, 0, false
	}

	workers := m.opts.workers
	if workers < 2 || len(ids) <= m.opts.parallelThreshold {
		c := m.scan(v, ids)
		return c.id, c.sim, c.ok
	}

	workers = min(workers, len(ids))
	shard := (len(ids) + workers - 1) / workers
	results := make([]candidate, workers)

	var g errgroup.Group
	for w := range workers {
		lo := w * shard
		hi := min(lo+shard, len(ids))
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			results[w] = m.scan(v, ids[lo:hi])
			return nil
		})
	}
	_ = g.Wait()

	var winner candidate
	for _, c := range results {
		if c.better(winner) {
			winner = c
		}
	}
	return winner.id, winner.sim, winner.ok
}

func (m *Memory) scan(v hypervector.Vector, ids []uint32) candidate {
	var c candidate
	for _, id := range ids {
		sim := v.Similarity(m.slots[id].vec)
		if !c.ok || sim > c.sim {
			c = candidate{id: id, sim: sim, ok: true}
		}
	}
	return c
}

// TopK returns up to k matches ranked by similarity, ties in insertion order.
func (m *Memory) TopK(v hypervector.Vector, k int) []Match {
	if v.Dimension() != m.dim {
		panic(&hypervector.ErrDimensionMismatch{Expected: m.dim, Actual: v.Dimension()})
	}
	if k <= 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, m.live.GetCardinality())
	it := m.live.Iterator()
	for it.HasNext() {
		s := m.slots[it.Next()]
		sim := v.Similarity(s.vec)
		matches = append(matches, Match{Symbol: s.symbol, Similarity: sim, Known: sim > m.opts.threshold})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Lookup returns the prototype stored for symbol.
func (m *Memory) Lookup(symbol string) (hypervector.Vector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.ids[symbol]
	if !ok {
		return hypervector.Vector{}, false
	}
	return m.slots[id].vec.Clone(), true
}

// Forget removes symbol. Its slot is tombstoned until Compact.
func (m *Memory) Forget(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.ids[symbol]
	if !ok {
		return false
	}
	delete(m.ids, symbol)
	m.live.Remove(id)
	m.slots[id] = slot{}
	m.opts.rc.ReleaseMemory(m.prototypeBytes())
	m.invalidate()
	return true
}

// Compact drops tombstoned slots, preserving insertion order.
// It returns the number of slots reclaimed.
func (m *Memory) Compact() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	reclaimed := len(m.slots) - int(m.live.GetCardinality())
	if reclaimed == 0 {
		return 0
	}

	slots := make([]slot, 0, m.live.GetCardinality())
	it := m.live.Iterator()
	for it.HasNext() {
		slots = append(slots, m.slots[it.Next()])
	}

	m.slots = slots
	m.live = roaring.New()
	m.live.AddRange(0, uint64(len(slots)))
	for id, s := range slots {
		m.ids[s.symbol] = uint32(id)
	}
	m.invalidate()
	return reclaimed
}

// Len returns the number of live symbols.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.live.GetCardinality())
}

// Symbols returns the live symbols in insertion order.
func (m *Memory) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, m.live.GetCardinality())
	it := m.live.Iterator()
	for it.HasNext() {
		out = append(out, m.slots[it.Next()].symbol)
	}
	return out
}

// Entries returns copies of the live prototypes in insertion order.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, m.live.GetCardinality())
	it := m.live.Iterator()
	for it.HasNext() {
		s := m.slots[it.Next()]
		out = append(out, Entry{Symbol: s.symbol, Vector: s.vec.Clone()})
	}
	return out
}

// CacheStats returns the decode cache hit and miss counters.
func (m *Memory) CacheStats() (hits, misses int64) {
	if m.cache == nil {
		return 0, 0
	}
	return m.cache.Stats()
}

// Reset forgets every symbol and returns the reserved memory.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opts.rc.ReleaseMemory(int64(m.live.GetCardinality()) * m.prototypeBytes())
	m.slots = nil
	m.ids = make(map[string]uint32)
	m.live.Clear()
	m.invalidate()
}

func (m *Memory) invalidate() {
	if m.cache != nil {
		m.cache.Purge()
	}
}

func cacheKey(v hypervector.Vector) string {
	words := v.AppendWords(nil)
	b := make([]byte, 0, len(words)*8)
	for _, w := range words {
		b = binary.LittleEndian.AppendUint64(b, w)
	}
	return string(b)
}
