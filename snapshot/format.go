package snapshot

import (
	"errors"
	"fmt"

	"github.com/hupe1980/holomem/codec"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "HDCS").
	MagicNumber = 0x48444353
	// Version is the current snapshot format version.
	Version = 1

	// HeaderSize is the encoded size of Header.
	HeaderSize = 32
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrInvalidFormat      = errors.New("unsupported body format")
	ErrInvalidCompression = errors.New("unsupported compression")
	ErrCorrupt            = errors.New("corrupt snapshot body")
)

// Header is the fixed-size header at the start of every snapshot.
type Header struct {
	Magic       uint32
	Version     uint32
	Dimension   uint32
	Compression CompressionType
	Format      Format
	Padding     [2]byte
	BodyLen     uint64
	Checksum    uint32
	Reserved    uint32
}

// Format selects the body encoding.
type Format uint8

const (
	// FormatBinary is the compact little-endian layout.
	FormatBinary Format = 0
	// FormatJSON encodes the State with the standard-library JSON codec.
	FormatJSON Format = 1
	// FormatGoJSON encodes the State with the go-json codec.
	FormatGoJSON Format = 2
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatJSON:
		return "json"
	case FormatGoJSON:
		return "go-json"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Codec returns the codec of a textual format.
func (f Format) Codec() (codec.Codec, bool) {
	if f == FormatBinary {
		return nil, false
	}
	return codec.ByName(f.String())
}

// ParseFormat parses "binary", "json" or "go-json".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "binary":
		return FormatBinary, nil
	case "json":
		return FormatJSON, nil
	case "go-json":
		return FormatGoJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// IsChecksumMismatch returns true if err is or wraps a checksum mismatch error.
func IsChecksumMismatch(err error) bool {
	var target *ChecksumMismatchError
	return errors.As(err, &target)
}
