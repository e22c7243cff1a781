package sumfile

import (
	"sort"
	"strings"

	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/pkg/digest"
)

const (
	// Separator sits between the path and the digest of a record.
	Separator = " "
	// KVSeparator sits between a header key and its value.
	KVSeparator = ": "

	KeyRoot      = "Root"
	KeyWhen      = "When"
	KeyAlgorithm = "Algorithm"

	sentinelWidth = 52
)

// Sentinel opens and closes the metadata header.
var Sentinel = strings.Repeat("=", sentinelWidth)

// RequiredKeys must be present in every header.
var RequiredKeys = []string{KeyRoot, KeyWhen}

// Codec encodes and decodes record lines for one digest algorithm.
type Codec struct {
	alg     digest.Algorithm
	hashLen int
}

// NewCodec returns a Codec for alg.
func NewCodec(alg digest.Algorithm) (Codec, error) {
	n := alg.HashLen()
	if n == 0 {
		return Codec{}, domain.ErrInvalidArgument.WithDetailsf("unknown digest algorithm %q", alg)
	}
	return Codec{alg: alg, hashLen: n}, nil
}

// DefaultCodec returns the Codec for digest.Default.
func DefaultCodec() Codec {
	c, _ := NewCodec(digest.Default)
	return c
}

// Algorithm returns the codec's digest algorithm.
func (c Codec) Algorithm() digest.Algorithm { return c.alg }

// MinLineLen is the length of a record line with an empty path.
func (c Codec) MinLineLen() int { return c.hashLen + len(Separator) }

// FormatLine encodes one record.
func (c Codec) FormatLine(path string, d digest.Digest) string {
	return path + Separator + d.Value()
}

// ParseLine decodes one record. The digest is taken from the end of the
// line, so a path containing the separator decodes intact.
func (c Codec) ParseLine(line string) (string, digest.Digest, error) {
	if len(line) < c.MinLineLen() {
		return "", digest.Digest{}, domain.ErrMalformedRecord.WithDetailsf(
			"line too short (%d bytes, need at least %d)", len(line), c.MinLineLen())
	}

	cut := len(line) - c.MinLineLen()
	path, sep, value := line[:cut], line[cut:cut+len(Separator)], line[cut+len(Separator):]
	if sep != Separator {
		return "", digest.Digest{}, domain.ErrMalformedRecord.WithDetailsf(
			"expected %q before digest, got %q", Separator, sep)
	}

	d, err := digest.Parse(c.alg, value)
	if err != nil {
		return "", digest.Digest{}, domain.ErrMalformedRecord.WithCause(err)
	}
	return path, d, nil
}

// FormatLine encodes one record with the default codec.
func FormatLine(path string, d digest.Digest) string {
	return DefaultCodec().FormatLine(path, d)
}

// ParseLine decodes one record with the default codec.
func ParseLine(line string) (string, digest.Digest, error) {
	return DefaultCodec().ParseLine(line)
}

// ParseHeader reads the metadata block at the top of lines. It returns the
// index of the first body line and the metadata.
func ParseHeader(lines []string) (int, map[string]string, error) {
	if len(lines) == 0 {
		return 0, nil, domain.ErrMalformedHeader.WithDetails("sum file is empty")
	}
	if lines[0] != Sentinel {
		return 0, nil, domain.ErrMalformedHeader.WithDetails("sum file must begin with the sentinel line")
	}

	meta := make(map[string]string)
	body := -1
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if line == Sentinel {
			body = i + 1
			break
		}

		key, val, ok := strings.Cut(line, KVSeparator)
		if !ok || key == "" {
			return 0, nil, domain.ErrMalformedHeader.WithDetailsf("line %d: expected %q", i+1, "key"+KVSeparator+"value")
		}
		if _, dup := meta[key]; dup {
			return 0, nil, domain.ErrDuplicateHeaderKey.WithDetailsf("line %d: %q", i+1, key)
		}
		meta[key] = val
	}
	if body < 0 {
		return 0, nil, domain.ErrMalformedHeader.WithDetails("header is not closed by the sentinel line")
	}

	for _, key := range RequiredKeys {
		if _, ok := meta[key]; !ok {
			return 0, nil, domain.ErrMissingHeaderKey.WithDetails(key)
		}
	}
	return body, meta, nil
}

// FormatHeader encodes metadata as header lines, sentinels included.
// Root, When and Algorithm come first; other keys follow in sorted order.
func FormatHeader(meta map[string]string) ([]string, error) {
	for _, key := range RequiredKeys {
		if _, ok := meta[key]; !ok {
			return nil, domain.ErrMissingHeaderKey.WithDetails(key)
		}
	}

	keys := make([]string, 0, len(meta))
	for key, val := range meta {
		if key == "" || strings.Contains(key, KVSeparator) || strings.ContainsAny(key+val, "\n\r") {
			return nil, domain.ErrInvalidArgument.WithDetailsf("header entry %q cannot be encoded", key)
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := keyRank(keys[i]), keyRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	lines := make([]string, 0, len(keys)+2)
	lines = append(lines, Sentinel)
	for _, key := range keys {
		lines = append(lines, key+KVSeparator+meta[key])
	}
	lines = append(lines, Sentinel)
	return lines, nil
}

func keyRank(key string) int {
	switch key {
	case KeyRoot:
		return 0
	case KeyWhen:
		return 1
	case KeyAlgorithm:
		return 2
	default:
		return 3
	}
}
