// Package fingerprint computes cheap content fingerprints and performs the
// exact byte-for-byte comparison that confirms a fingerprint match.
//
// A fingerprint is the file size plus a digest over a bounded prefix of the
// file. Files of different sizes never share a fingerprint. Files of the same
// size that agree on the sampled prefix do share one even if their tails
// differ, which is why Equal must confirm every match before anything is
// deleted.
package fingerprint

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/go-git/go-billy/v5"

	"github.com/yuya-takeyama/strict-dir-sync/internal/checksum"
)

const (
	// DefaultChunkSize is the size of one sampled chunk.
	DefaultChunkSize = 100 * 1024
	// DefaultMaxChunks bounds the sampled prefix to DefaultChunkSize*DefaultMaxChunks bytes.
	DefaultMaxChunks = 10

	compareBufferSize = 64 * 1024
)

// Fingerprint is comparable and can be used as a map key.
type Fingerprint struct {
	Size   int64
	Digest string
}

func (f Fingerprint) String() string {
	return strconv.FormatInt(f.Size, 10) + f.Digest
}

// Engine fingerprints and compares files on one filesystem.
type Engine struct {
	fs        billy.Filesystem
	chunkSize int
	maxChunks int
	algorithm string
}

// NewEngine creates an Engine. Non-positive window values fall back to the defaults.
func NewEngine(fs billy.Filesystem, chunkSize, maxChunks int, algorithm string) (*Engine, error) {
	if !checksum.IsSupported(algorithm) {
		return nil, fmt.Errorf("unknown digest algorithm %q", algorithm)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &Engine{
		fs:        fs,
		chunkSize: chunkSize,
		maxChunks: maxChunks,
		algorithm: algorithm,
	}, nil
}

// Window returns the number of bytes sampled from the start of each file.
func (e *Engine) Window() int64 {
	return int64(e.chunkSize) * int64(e.maxChunks)
}

// Fingerprint reads at most the sampling window from path.
func (e *Engine) Fingerprint(path string) (Fingerprint, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := e.fs.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat file: %w", err)
	}

	h, err := checksum.NewHash(e.algorithm)
	if err != nil {
		return Fingerprint{}, err
	}

	digest, _, err := checksum.CalculatePartial(f, h, e.chunkSize, e.maxChunks)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("hash %q: %w", path, err)
	}

	return Fingerprint{Size: info.Size(), Digest: digest}, nil
}

// Equal compares the full contents of a and b byte for byte.
func (e *Engine) Equal(a, b string) (bool, error) {
	fa, err := e.fs.Open(a)
	if err != nil {
		return false, fmt.Errorf("open file: %w", err)
	}
	defer fa.Close()

	fb, err := e.fs.Open(b)
	if err != nil {
		return false, fmt.Errorf("open file: %w", err)
	}
	defer fb.Close()

	return equalReaders(fa, fb)
}

func equalReaders(a, b io.Reader) (bool, error) {
	bufA := make([]byte, compareBufferSize)
	bufB := make([]byte, compareBufferSize)

	for {
		na, errA := io.ReadFull(a, bufA)
		nb, errB := io.ReadFull(b, bufB)

		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("read: %w", errA)
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("read: %w", errB)
		}
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		// a short read means both hit EOF at the same offset
		if errA != nil || errB != nil {
			return errA != nil && errB != nil, nil
		}
	}
}
