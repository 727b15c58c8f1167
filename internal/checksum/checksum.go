package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
)

const (
	AlgorithmXXHash = "xxhash"
	AlgorithmSHA256 = "sha256"
)

// NewHash returns a fresh hash for the named algorithm.
func NewHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case AlgorithmXXHash, "":
		return xxhash.New(), nil
	case AlgorithmSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q", algorithm)
	}
}

// IsSupported reports whether NewHash accepts algorithm.
func IsSupported(algorithm string) bool {
	_, err := NewHash(algorithm)
	return err == nil
}

// CalculatePartial feeds at most maxChunks chunks of chunkSize bytes from r
// into h and returns the hex encoded digest together with the number of
// bytes consumed. Reading stops early at EOF.
func CalculatePartial(r io.Reader, h hash.Hash, chunkSize, maxChunks int) (string, int64, error) {
	if chunkSize <= 0 || maxChunks <= 0 {
		return "", 0, fmt.Errorf("invalid sampling window: %d chunks of %d bytes", maxChunks, chunkSize)
	}

	buffer := make([]byte, chunkSize)
	var consumed int64

	for i := 0; i < maxChunks; i++ {
		n, err := io.ReadFull(r, buffer)
		if n > 0 {
			if _, werr := h.Write(buffer[:n]); werr != nil {
				return "", consumed, fmt.Errorf("write to hash: %w", werr)
			}
			consumed += int64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", consumed, fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), consumed, nil
}
