// Package snapshot serializes the complete learned state of an engine.
//
// A snapshot is a fixed 32-byte header followed by a body. The header is
// always little-endian binary:
//
//	Magic       uint32  "HDCS"
//	Version     uint32
//	Dimension   uint32
//	Compression uint8   0=none 1=lz4 2=zstd
//	Format      uint8   0=binary 1=json 2=go-json
//	Padding     [2]byte
//	BodyLen     uint64  stored (possibly compressed) body size
//	Checksum    uint32  CRC32C of the stored body
//	Reserved    uint32
//
// The binary body layout is:
//
//	Seed            int64
//	PrototypeCount  uint32
//	  SymbolLen uint32 | Symbol | Words [ceil(D/64)]uint64
//	MemoryCount     uint32
//	  Count uint64 | Votes [D]int64
//
// JSON bodies hold the same State encoded by the codec named in Format.
// Compressed bodies are a sequence of independently compressed blocks.
package snapshot
