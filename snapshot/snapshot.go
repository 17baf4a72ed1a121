package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/holomem/internal/conv"
	"github.com/hupe1980/holomem/internal/hash"
)

// Options controls how a snapshot is written.
type Options struct {
	Format      Format
	Compression CompressionType
	// BlockSize is the compression block size. 0 uses 256 KiB.
	BlockSize int
}

// DefaultOptions writes binary, LZ4-compressed snapshots.
var DefaultOptions = Options{Format: FormatBinary, Compression: CompressionLZ4}

// Encode writes s to w.
func Encode(w io.Writer, s *State, opts Options) error {
	if err := s.Validate(); err != nil {
		return err
	}

	var body []byte
	switch opts.Format {
	case FormatBinary:
		b, err := appendBinaryBody(make([]byte, 0, binarySize(s)), s)
		if err != nil {
			return fmt.Errorf("encode binary body: %w", err)
		}
		body = b
	case FormatJSON, FormatGoJSON:
		c, _ := opts.Format.Codec()
		b, err := c.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", c.Name(), err)
		}
		body = b
	default:
		return fmt.Errorf("%w: %d", ErrInvalidFormat, opts.Format)
	}

	stored, err := compress(body, opts.Compression, opts.BlockSize)
	if err != nil {
		return fmt.Errorf("compress body: %w", err)
	}

	dim, err := conv.IntToUint32(s.Dimension)
	if err != nil {
		return fmt.Errorf("dimension: %w", err)
	}

	header := Header{
		Magic:       MagicNumber,
		Version:     Version,
		Dimension:   dim,
		Compression: opts.Compression,
		Format:      opts.Format,
		BodyLen:     uint64(len(stored)),
		Checksum:    hash.CRC32C(stored),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(stored); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// Marshal encodes s into a byte slice.
func Marshal(s *State, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadHeader reads and validates the snapshot header.
func ReadHeader(r io.Reader) (*Header, error) {
	var header Header
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, header.Version)
	}
	if header.Dimension == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorrupt)
	}
	if header.Compression > CompressionZSTD {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCompression, header.Compression)
	}
	if header.Format > FormatGoJSON {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFormat, header.Format)
	}
	return &header, nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*State, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	// Read through a LimitReader so a corrupt BodyLen cannot force a huge allocation.
	stored, err := io.ReadAll(io.LimitReader(r, int64(min(header.BodyLen, 1<<62))))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if uint64(len(stored)) != header.BodyLen {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorrupt, len(stored), header.BodyLen)
	}
	if sum := hash.CRC32C(stored); sum != header.Checksum {
		return nil, &ChecksumMismatchError{Expected: header.Checksum, Actual: sum}
	}

	body, err := decompress(stored, header.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrCorrupt, err)
	}

	dim := int(header.Dimension)
	var s *State
	if header.Format == FormatBinary {
		s, err = readBinaryBody(body, dim)
		if err != nil {
			return nil, err
		}
	} else {
		c, _ := header.Format.Codec()
		s = &State{}
		if err := c.Unmarshal(body, s); err != nil {
			return nil, fmt.Errorf("%w: %s body: %w", ErrCorrupt, c.Name(), err)
		}
		if s.Dimension != dim {
			return nil, fmt.Errorf("%w: body dimension %d, header %d", ErrCorrupt, s.Dimension, dim)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Unmarshal decodes a snapshot from data.
func Unmarshal(data []byte) (*State, error) {
	return Decode(bytes.NewReader(data))
}

func binarySize(s *State) int {
	n := 8 + 4 + 4
	for _, p := range s.Prototypes {
		n += 4 + len(p.Symbol) + 8*len(p.Words)
	}
	for _, m := range s.Memories {
		n += 8 + 8*len(m.Votes)
	}
	return n
}
