package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/internal/conv"
)

// appendBinaryBody appends the binary body layout of s to dst.
func appendBinaryBody(dst []byte, s *State) ([]byte, error) {
	le := binary.LittleEndian

	dst = le.AppendUint64(dst, uint64(s.Seed))

	n, err := conv.IntToUint32(len(s.Prototypes))
	if err != nil {
		return nil, fmt.Errorf("prototype count: %w", err)
	}
	dst = le.AppendUint32(dst, n)
	for _, p := range s.Prototypes {
		n, err := conv.IntToUint32(len(p.Symbol))
		if err != nil {
			return nil, fmt.Errorf("symbol %q: %w", p.Symbol, err)
		}
		dst = le.AppendUint32(dst, n)
		dst = append(dst, p.Symbol...)
		for _, w := range p.Words {
			dst = le.AppendUint64(dst, w)
		}
	}

	n, err = conv.IntToUint32(len(s.Memories))
	if err != nil {
		return nil, fmt.Errorf("memory count: %w", err)
	}
	dst = le.AppendUint32(dst, n)
	for _, m := range s.Memories {
		dst = le.AppendUint64(dst, uint64(m.Count))
		for _, v := range m.Votes {
			dst = le.AppendUint64(dst, uint64(v))
		}
	}
	return dst, nil
}

// bodyReader decodes the binary body with bounds checks on every count.
type bodyReader struct {
	r *bytes.Reader
}

func (br *bodyReader) uint32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(br.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (br *bodyReader) uint64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(br.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// need fails if fewer than n bytes remain, so corrupt counts cannot force
// huge allocations.
func (br *bodyReader) need(n uint64) error {
	if n > uint64(br.r.Len()) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (br *bodyReader) uint64s(n int) ([]uint64, error) {
	if err := br.need(uint64(n) * 8); err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	if err := binary.Read(br.r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (br *bodyReader) int64s(n int) ([]int64, error) {
	if err := br.need(uint64(n) * 8); err != nil {
		return nil, err
	}
	out := make([]int64, n)
	if err := binary.Read(br.r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readBinaryBody(body []byte, dim int) (*State, error) {
	br := &bodyReader{r: bytes.NewReader(body)}
	words := hypervector.NumWords(dim)
	s := &State{Dimension: dim}

	seed, err := br.uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: seed: %w", ErrCorrupt, err)
	}
	s.Seed = int64(seed)

	count, err := br.uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: prototype count: %w", ErrCorrupt, err)
	}
	if err := br.need(uint64(count) * uint64(4+words*8)); err != nil {
		return nil, fmt.Errorf("%w: %d prototypes: %w", ErrCorrupt, count, err)
	}
	s.Prototypes = make([]Prototype, 0, count)
	for i := range count {
		n, err := br.uint32()
		if err != nil {
			return nil, fmt.Errorf("%w: prototype %d: %w", ErrCorrupt, i, err)
		}
		if err := br.need(uint64(n)); err != nil {
			return nil, fmt.Errorf("%w: prototype %d symbol: %w", ErrCorrupt, i, err)
		}
		sym := make([]byte, n)
		if _, err := io.ReadFull(br.r, sym); err != nil {
			return nil, fmt.Errorf("%w: prototype %d symbol: %w", ErrCorrupt, i, err)
		}
		ws, err := br.uint64s(words)
		if err != nil {
			return nil, fmt.Errorf("%w: prototype %d words: %w", ErrCorrupt, i, err)
		}
		s.Prototypes = append(s.Prototypes, Prototype{Symbol: string(sym), Words: ws})
	}

	count, err = br.uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: memory count: %w", ErrCorrupt, err)
	}
	if err := br.need(uint64(count) * uint64(8+dim*8)); err != nil {
		return nil, fmt.Errorf("%w: %d memories: %w", ErrCorrupt, count, err)
	}
	s.Memories = make([]MemoryState, 0, count)
	for i := range count {
		c, err := br.uint64()
		if err != nil {
			return nil, fmt.Errorf("%w: memory %d: %w", ErrCorrupt, i, err)
		}
		total, err := conv.Uint64ToInt(c)
		if err != nil {
			return nil, fmt.Errorf("%w: memory %d count: %w", ErrCorrupt, i, err)
		}
		votes, err := br.int64s(dim)
		if err != nil {
			return nil, fmt.Errorf("%w: memory %d votes: %w", ErrCorrupt, i, err)
		}
		s.Memories = append(s.Memories, MemoryState{Count: total, Votes: votes})
	}

	if br.r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, br.r.Len())
	}
	return s, nil
}
