package common

import (
	"encoding/binary"

	sha256 "github.com/minio/sha256-simd"
)

// ComputeHash computes the SHA-256 hash of the concatenation of parts.
func ComputeHash(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Sha256 is ComputeHash returning a Hash.
func Sha256(parts ...[]byte) Hash {
	return BytesToHash(ComputeHash(parts...))
}

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, val)
	return bytes
}
