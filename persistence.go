package holomem

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/holomem/blobstore"
	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/memory"
	"github.com/hupe1980/holomem/resource"
	"github.com/hupe1980/holomem/snapshot"
)

// ExportState returns a deep copy of the learned state.
func (h *Orchestrator) ExportState() *snapshot.State {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.cleanup.Entries()
	s := &snapshot.State{
		Dimension:  h.opts.dimension,
		Seed:       h.opts.seed,
		Prototypes: make([]snapshot.Prototype, len(entries)),
	}
	for i, e := range entries {
		s.Prototypes[i] = snapshot.Prototype{Symbol: e.Symbol, Words: e.Vector.Words()}
	}

	ms := h.memory.State()
	s.Memories = make([]snapshot.MemoryState, len(ms.Orders))
	for i, ts := range ms.Orders {
		s.Memories[i] = snapshot.MemoryState{Count: ts.Count, Votes: ts.Votes}
	}
	return s
}

// FromState rebuilds an Orchestrator from an exported state.
//
// The dimension and seed always come from state. Other options, such as the
// threshold or the logger, apply as in New.
func FromState(state *snapshot.State, optFns ...Option) (*Orchestrator, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrCorruptSnapshot)
	}
	if err := state.Validate(); err != nil {
		return nil, translateError(err)
	}
	if len(state.Memories) != memory.Orders {
		return nil, fmt.Errorf("%w: %d memories, want %d", ErrCorruptSnapshot, len(state.Memories), memory.Orders)
	}

	optFns = append(optFns[:len(optFns):len(optFns)], WithDimension(state.Dimension), WithSeed(state.Seed))
	o := applyOptions(optFns)
	if err := o.validate(); err != nil {
		return nil, err
	}
	h := newOrchestrator(o)

	for _, p := range state.Prototypes {
		v, err := hypervector.FromWords(state.Dimension, p.Words)
		if err != nil {
			return nil, translateError(err)
		}
		if err := h.cleanup.Memorize(p.Symbol, v); err != nil {
			h.cleanup.Reset()
			return nil, translateError(fmt.Errorf("restore prototype %q: %w", p.Symbol, err))
		}
	}

	var ms memory.MultiScaleState
	for i, m := range state.Memories {
		ms.Orders[i] = memory.TransitionState{Votes: m.Votes, Count: m.Count}
	}
	if err := h.memory.Restore(ms); err != nil {
		h.cleanup.Reset()
		return nil, translateError(err)
	}
	return h, nil
}

// Save writes a snapshot of the learned state to store under name.
//
// The write is streamed through the resource controller's IO limiter and
// only becomes visible in the store once it completed.
func (h *Orchestrator) Save(ctx context.Context, store blobstore.Store, name string) (err error) {
	start := time.Now()
	var (
		written    int64
		prototypes int
	)
	defer func() {
		h.metrics.RecordSnapshot(false, written, time.Since(start), err)
		h.logger.LogSnapshot(ctx, name, prototypes, err)
	}()

	rc := h.opts.rc
	if err = rc.AcquireIOSlot(ctx); err != nil {
		return err
	}
	defer rc.ReleaseIOSlot()

	state := h.ExportState()
	prototypes = len(state.Prototypes)

	blob, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create snapshot %q: %w", name, err)
	}
	cw := &countingWriter{w: resource.NewRateLimitedWriter(ctx, blob, rc)}
	if err = snapshot.Encode(cw, state, h.opts.snapshotOptions); err != nil {
		_ = blob.Abort()
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}
	if err = blob.Close(); err != nil {
		return fmt.Errorf("commit snapshot %q: %w", name, err)
	}
	written = cw.n
	return nil
}

// Load restores an Orchestrator from the snapshot stored under name.
// optFns apply as in FromState.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (h *Orchestrator, err error) {
	o := applyOptions(optFns)
	start := time.Now()
	var read int64
	defer func() {
		prototypes := 0
		if h != nil {
			prototypes = h.VocabSize()
		}
		o.metricsCollector.RecordSnapshot(true, read, time.Since(start), err)
		o.logger.LogRestore(ctx, name, prototypes, err)
	}()

	if err = o.rc.AcquireIOSlot(ctx); err != nil {
		return nil, err
	}
	defer o.rc.ReleaseIOSlot()

	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %q: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	cr := &countingReader{r: resource.NewRateLimitedReader(ctx, r, o.rc)}
	state, err := snapshot.Decode(cr)
	read = cr.n
	if err != nil {
		return nil, translateError(fmt.Errorf("decode snapshot %q: %w", name, err))
	}
	return FromState(state, optFns...)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
