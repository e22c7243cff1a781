package digest

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Algorithm names a supported hash function.
type Algorithm string

const (
	SHA512     Algorithm = "sha512"
	BLAKE2b512 Algorithm = "blake2b-512"

	// Default is the algorithm used when a sum file does not name one.
	Default = SHA512
)

// bufferSize is the read buffer used when streaming file content.
const bufferSize = 128 * 1024

var (
	ErrUnknownAlgorithm = errors.New("digest: unknown algorithm")
	ErrInvalidDigest    = errors.New("digest: invalid digest")
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// Algorithms returns every supported algorithm, default first.
func Algorithms() []Algorithm {
	return []Algorithm{SHA512, BLAKE2b512}
}

// ParseAlgorithm resolves an algorithm by name. An empty name selects Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return Default, nil
	}
	for _, a := range Algorithms() {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case SHA512:
		return sha512.New(), nil
	case BLAKE2b512:
		return blake2b.New512(nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
}

// HashLen is the number of hex characters in a digest, or 0 for an
// unknown algorithm.
func (a Algorithm) HashLen() int {
	h, err := a.New()
	if err != nil {
		return 0
	}
	return h.Size() * 2
}

// Valid reports whether s looks like a digest produced by the algorithm:
// exactly HashLen lowercase hex characters.
func (a Algorithm) Valid(s string) bool {
	n := a.HashLen()
	if n == 0 || len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Digest is an immutable algorithm-tagged hex digest.
type Digest struct {
	alg   Algorithm
	value string
}

// Parse wraps an existing hex value, validating it against the algorithm.
func Parse(alg Algorithm, value string) (Digest, error) {
	if !alg.Valid(value) {
		return Digest{}, fmt.Errorf("%w: %q is not a %s digest", ErrInvalidDigest, value, alg)
	}
	return Digest{alg: alg, value: value}, nil
}

// Algorithm returns the algorithm that produced the digest.
func (d Digest) Algorithm() Algorithm { return d.alg }

// Value returns the lowercase hex digest.
func (d Digest) Value() string { return d.value }

// String implements fmt.Stringer.
func (d Digest) String() string { return d.value }

// IsZero reports whether d is the zero Digest.
func (d Digest) IsZero() bool { return d.value == "" }

// Equal reports whether both digests carry the same algorithm and value.
func (d Digest) Equal(o Digest) bool {
	return d.alg == o.alg && d.value == o.value
}

// Sum streams r to EOF and returns its digest and the number of bytes read.
func Sum(alg Algorithm, r io.Reader) (Digest, int64, error) {
	h, err := alg.New()
	if err != nil {
		return Digest{}, 0, err
	}

	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)

	n, err := io.CopyBuffer(h, r, *bp)
	if err != nil {
		return Digest{}, n, fmt.Errorf("digest: read: %w", err)
	}
	return Digest{alg: alg, value: hex.EncodeToString(h.Sum(nil))}, n, nil
}

// SumBytes returns the digest of b.
func SumBytes(alg Algorithm, b []byte) (Digest, error) {
	h, err := alg.New()
	if err != nil {
		return Digest{}, err
	}
	h.Write(b)
	return Digest{alg: alg, value: hex.EncodeToString(h.Sum(nil))}, nil
}

// SumFile opens path and returns the digest of its full content.
func SumFile(alg Algorithm, path string) (Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, err
	}
	defer f.Close()

	d, n, err := Sum(alg, f)
	if err != nil {
		return Digest{}, n, fmt.Errorf("%s: %w", path, err)
	}
	return d, n, nil
}
