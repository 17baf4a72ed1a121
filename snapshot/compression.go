package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm applied to the body.
type CompressionType uint8

const (
	// CompressionNone stores the body as is.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (CompressionType, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCompression, s)
	}
}

const (
	defaultBlockSize = 256 * 1024
	// maxBlockSize bounds a single block on both sides, so a corrupt block
	// header cannot request an arbitrarily large buffer.
	maxBlockSize    = 64 << 20
	blockHeaderSize = 8
	// lz4MaxRatio is the largest expansion an LZ4 block can encode.
	lz4MaxRatio = 255
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxBlockSize),
	)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress splits data into blocks of blockSize and compresses each one.
// Block format: [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 marks a block stored uncompressed because compression
// did not help.
func compress(data []byte, ct CompressionType, blockSize int) ([]byte, error) {
	if ct == CompressionNone {
		return data, nil
	}
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	blockSize = min(blockSize, maxBlockSize)

	var out bytes.Buffer
	for len(data) > 0 {
		n := min(len(data), blockSize)
		block, err := compressBlock(data[:n], ct)
		if err != nil {
			return nil, err
		}
		out.Write(block)
		data = data[n:]
	}
	return out.Bytes(), nil
}

func compressBlock(data []byte, ct CompressionType) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)
	switch ct {
	case CompressionLZ4:
		compressed, err = compressBlockLZ4(data)
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCompression, ct)
	}
	if err != nil {
		return nil, err
	}

	stored := compressed
	storedLen := uint32(len(compressed))
	// If compression doesn't help (ratio > 0.9), store uncompressed
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		stored = data
		storedLen = 0
	}

	result := make([]byte, blockHeaderSize+len(stored))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(result[4:], storedLen)
	copy(result[blockHeaderSize:], stored)
	return result, nil
}

func compressBlockLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

// decompress reverses compress.
func decompress(data []byte, ct CompressionType) ([]byte, error) {
	if ct == CompressionNone {
		return data, nil
	}

	var result []byte
	for len(data) > 0 {
		block, rest, err := decompressBlock(data, ct)
		if err != nil {
			return nil, err
		}
		result = append(result, block...)
		data = rest
	}
	return result, nil
}

func decompressBlock(data []byte, ct CompressionType) ([]byte, []byte, error) {
	if len(data) < blockHeaderSize {
		return nil, nil, errors.New("block too small for header")
	}

	uncompressedSize := int(binary.LittleEndian.Uint32(data[0:]))
	compressedSize := int(binary.LittleEndian.Uint32(data[4:]))
	data = data[blockHeaderSize:]

	if compressedSize == 0 {
		if len(data) < uncompressedSize {
			return nil, nil, errors.New("block data too small")
		}
		return data[:uncompressedSize], data[uncompressedSize:], nil
	}

	if len(data) < compressedSize {
		return nil, nil, errors.New("compressed block data too small")
	}
	compressedData, rest := data[:compressedSize], data[compressedSize:]
	if uncompressedSize > maxBlockSize {
		return nil, nil, fmt.Errorf("block declares %d bytes, limit is %d", uncompressedSize, maxBlockSize)
	}

	switch ct {
	case CompressionLZ4:
		if uncompressedSize > lz4MaxRatio*compressedSize+16 {
			return nil, nil, fmt.Errorf("lz4 block declares %d bytes from %d", uncompressedSize, compressedSize)
		}
		result := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(compressedData, result)
		if err != nil {
			return nil, nil, err
		}
		if n != uncompressedSize {
			return nil, nil, errors.New("decompressed size mismatch")
		}
		return result, rest, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		// Decode into a fresh slice so the output grows with the real data
		// rather than the declared size.
		decoded, err := dec.DecodeAll(compressedData, nil)
		if err != nil {
			return nil, nil, err
		}
		if len(decoded) != uncompressedSize {
			return nil, nil, errors.New("decompressed size mismatch")
		}
		return decoded, rest, nil

	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidCompression, ct)
	}
}
