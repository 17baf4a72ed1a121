// Package hash provides the checksums and string hashes used across holomem.
//
// Snapshot bodies and S3 uploads are protected by CRC32C, which Go
// accelerates in hardware on x86 (SSE4.2) and ARM (CRC extension).
//
// Token embeddings are seeded from the 64-bit FNV-1a hash of the token, so the
// same token maps to the same seed in every process and on every platform.
package hash
