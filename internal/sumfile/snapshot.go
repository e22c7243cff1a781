package sumfile

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/pkg/digest"
)

// maxLineBytes bounds a single line; long paths must still fit.
const maxLineBytes = 1 << 20

// Mode selects what Open does with the named file.
type Mode int

const (
	// ModeRead loads an existing sum file.
	ModeRead Mode = iota
	// ModeCreate would start a new sum file. Open does not support it;
	// build snapshots with New instead.
	ModeCreate
)

type options struct {
	retainRawLines bool
	strictPaths    bool
	algorithm      digest.Algorithm
	metadata       map[string]string
}

// Option configures how a Snapshot is loaded or built.
type Option func(*options)

// WithRetainRawLines keeps the raw lines of a loaded file for diagnostics.
func WithRetainRawLines(retain bool) Option {
	return func(o *options) {
		o.retainRawLines = retain
	}
}

// WithStrictPaths rejects a body that lists the same path twice. By default
// the last record for a path wins.
func WithStrictPaths(strict bool) Option {
	return func(o *options) {
		o.strictPaths = strict
	}
}

// WithAlgorithm sets the digest algorithm. When loading, it applies only
// if the header does not name one.
func WithAlgorithm(alg digest.Algorithm) Option {
	return func(o *options) {
		o.algorithm = alg
	}
}

// WithMetadata adds opaque header entries to a snapshot built with New.
func WithMetadata(meta map[string]string) Option {
	return func(o *options) {
		o.metadata = meta
	}
}

func newOptions(opts []Option) *options {
	o := &options{algorithm: digest.Default}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot is the parsed content of one sum file. It is not modified after
// construction.
type Snapshot struct {
	root       string
	capturedAt float64
	algorithm  digest.Algorithm
	meta       map[string]string
	records    map[string]digest.Digest
	raw        []string
}

// Open reads the sum file at path. Only ModeRead is supported.
func Open(path string, mode Mode, opts ...Option) (*Snapshot, error) {
	if mode != ModeRead {
		return nil, domain.ErrNotImplemented.WithDetails("creating a sum file through Open is not supported")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	defer f.Close()

	s, err := Parse(f, opts...)
	if err != nil {
		if domain.IsDomainError(err, "") {
			return nil, err
		}
		return nil, domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	return s, nil
}

// Parse reads a complete sum file from r.
func Parse(r io.Reader, opts ...Option) (*Snapshot, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, domain.ErrMalformedRecord.WithDetailsf("line %d: longer than %d bytes", len(lines)+1, maxLineBytes)
		}
		return nil, err
	}
	return Load(lines, opts...)
}

// Load builds a Snapshot from the lines of a sum file, without their
// trailing newlines.
func Load(lines []string, opts ...Option) (*Snapshot, error) {
	o := newOptions(opts)

	body, meta, err := ParseHeader(lines)
	if err != nil {
		return nil, err
	}

	root, err := normalizeRoot(meta[KeyRoot])
	if err != nil {
		return nil, err
	}

	when, err := strconv.ParseFloat(meta[KeyWhen], 64)
	if err != nil || math.IsNaN(when) || math.IsInf(when, 0) {
		return nil, domain.ErrMalformedHeader.WithDetailsf("%s: invalid timestamp %q", KeyWhen, meta[KeyWhen])
	}

	alg := o.algorithm
	if name, ok := meta[KeyAlgorithm]; ok {
		if alg, err = digest.ParseAlgorithm(name); err != nil {
			return nil, domain.ErrMalformedHeader.WithCause(err)
		}
	}
	codec, err := NewCodec(alg)
	if err != nil {
		return nil, err
	}

	records := make(map[string]digest.Digest, len(lines)-body)
	for i := body; i < len(lines); i++ {
		path, d, err := codec.ParseLine(lines[i])
		if err != nil {
			return nil, atLine(err, i+1)
		}
		if _, dup := records[path]; dup && o.strictPaths {
			return nil, domain.ErrDuplicatePath.WithDetailsf("line %d: %s", i+1, path)
		}
		records[path] = d
	}

	s := &Snapshot{
		root:       root,
		capturedAt: when,
		algorithm:  alg,
		meta:       meta,
		records:    records,
	}
	if o.retainRawLines {
		s.raw = append([]string(nil), lines...)
	}
	return s, nil
}

// New assembles a Snapshot from freshly computed records. Every digest must
// use the configured algorithm.
func New(root string, capturedAt time.Time, records map[string]digest.Digest, opts ...Option) (*Snapshot, error) {
	o := newOptions(opts)
	if o.algorithm.HashLen() == 0 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("unknown digest algorithm %q", o.algorithm)
	}

	if root == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("root is required")
	}
	root = filepath.Clean(root)

	recs := make(map[string]digest.Digest, len(records))
	for path, d := range records {
		if path == "" || strings.ContainsAny(path, "\n\r") {
			return nil, domain.ErrInvalidArgument.WithDetailsf("path %q cannot be encoded", path)
		}
		if d.Algorithm() != o.algorithm || !o.algorithm.Valid(d.Value()) {
			return nil, domain.ErrInvalidArgument.WithDetailsf("%s: digest is not %s", path, o.algorithm)
		}
		recs[path] = d
	}

	when := float64(capturedAt.Unix()) + float64(capturedAt.Nanosecond())/float64(time.Second)
	meta := make(map[string]string, len(o.metadata)+3)
	for k, v := range o.metadata {
		meta[k] = v
	}
	meta[KeyRoot] = root
	meta[KeyWhen] = formatWhen(when)
	meta[KeyAlgorithm] = string(o.algorithm)

	return &Snapshot{
		root:       root,
		capturedAt: when,
		algorithm:  o.algorithm,
		meta:       meta,
		records:    recs,
	}, nil
}

func atLine(err error, n int) error {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return err
	}
	if de.Details == "" {
		return de.WithDetailsf("line %d", n)
	}
	return de.WithDetailsf("line %d: %s", n, de.Details)
}

func normalizeRoot(root string) (string, error) {
	if root == "" {
		return "", domain.ErrMalformedHeader.WithDetailsf("%s: empty path", KeyRoot)
	}
	return filepath.Clean(root), nil
}

func formatWhen(when float64) string {
	return strconv.FormatFloat(when, 'f', 6, 64)
}

// Root returns the normalized directory the snapshot covers.
func (s *Snapshot) Root() string { return s.root }

// CapturedAt returns the capture time in seconds since the Unix epoch.
func (s *Snapshot) CapturedAt() float64 { return s.capturedAt }

// Time returns CapturedAt as a time.Time.
func (s *Snapshot) Time() time.Time {
	sec, frac := math.Modf(s.capturedAt)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// Algorithm returns the digest algorithm of every record.
func (s *Snapshot) Algorithm() digest.Algorithm { return s.algorithm }

// Metadata returns a copy of all header entries, including unknown ones.
func (s *Snapshot) Metadata() map[string]string {
	out := make(map[string]string, len(s.meta))
	for k, v := range s.meta {
		out[k] = v
	}
	return out
}

// Get returns the digest recorded for path.
func (s *Snapshot) Get(path string) (digest.Digest, error) {
	d, ok := s.records[path]
	if !ok {
		return digest.Digest{}, domain.ErrPathNotFound.WithDetails(path)
	}
	return d, nil
}

// Contains reports whether path has a record.
func (s *Snapshot) Contains(path string) bool {
	_, ok := s.records[path]
	return ok
}

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.records) }

// Paths returns every recorded path in ascending order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.records))
	for p := range s.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Range calls fn for each record in unspecified order until fn returns false.
func (s *Snapshot) Range(fn func(path string, d digest.Digest) bool) {
	for p, d := range s.records {
		if !fn(p, d) {
			return
		}
	}
}

// RawLines returns the lines the snapshot was loaded from, or nil unless
// WithRetainRawLines was set.
func (s *Snapshot) RawLines() []string {
	if s.raw == nil {
		return nil
	}
	return append([]string(nil), s.raw...)
}

// Compare orders snapshots by capture time alone: it returns -1 if s was
// captured before o, +1 if after, and 0 for equal timestamps even when the
// records differ.
func (s *Snapshot) Compare(o *Snapshot) int {
	switch {
	case s.capturedAt < o.capturedAt:
		return -1
	case s.capturedAt > o.capturedAt:
		return 1
	default:
		return 0
	}
}

// ByCapturedAt is a comparator for slices.SortFunc that orders snapshots
// oldest first.
func ByCapturedAt(a, b *Snapshot) int {
	return a.Compare(b)
}

// IsNotExist reports whether err came from a missing sum file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
