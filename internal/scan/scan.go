package scan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/internal/sumfile"
	"github.com/zakopane-go/zakopane/internal/telemetry/logger"
	"github.com/zakopane-go/zakopane/pkg/cmap"
	"github.com/zakopane-go/zakopane/pkg/digest"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 8

// Options configures Build.
type Options struct {
	Algorithm digest.Algorithm
	Workers   int
	// RateLimit caps read throughput in bytes per second. 0 is unlimited.
	RateLimit      int64
	// BigFileBytes is the size from which a file is hashed while no other
	// file is being hashed. 0 disables it.
	BigFileBytes   int64
	FollowSymlinks bool
	IncludeHidden  bool
	// Strict turns unreadable entries into a fatal error.
	Strict bool
	// Exclude patterns are matched against full paths. A matching
	// directory is not descended.
	Exclude []*regexp.Regexp
	// Now stamps the snapshot. Defaults to time.Now.
	Now func() time.Time
	// Snapshot options are passed to sumfile.New.
	Snapshot []sumfile.Option
	// Progress, if set, is called from worker goroutines after each file
	// is hashed with the number of bytes read.
	Progress func(n int64)
}

// Stats summarizes one scan.
type Stats struct {
	Files    int64         `json:"files" yaml:"files"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
	Symlinks int64         `json:"symlinks" yaml:"symlinks"`
	Excluded int64         `json:"excluded" yaml:"excluded"`
	Skipped  int64         `json:"skipped" yaml:"skipped"`
	Errors   int64         `json:"errors" yaml:"errors"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

type counters struct {
	files, bytes, symlinks, excluded, skipped, errors atomic.Int64
}

func (c *counters) stats(elapsed time.Duration) Stats {
	return Stats{
		Files:    c.files.Load(),
		Bytes:    c.bytes.Load(),
		Symlinks: c.symlinks.Load(),
		Excluded: c.excluded.Load(),
		Skipped:  c.skipped.Load(),
		Errors:   c.errors.Load(),
		Elapsed:  elapsed,
	}
}

type scanner struct {
	opts Options
	root string
	lim  *rate.Limiter
	log  logger.Logger

	c counters

	records *cmap.Map[digest.Digest]

	// gate lets small files hash concurrently under RLock and gives big
	// files the whole pool under Lock.
	gate sync.RWMutex
}

// Build walks root and returns a snapshot of every regular file below it.
// Record paths are absolute. A cancelled ctx aborts the scan and no
// snapshot is returned.
func Build(ctx context.Context, root string, opts Options) (*sumfile.Snapshot, Stats, error) {
	start := time.Now()
	if opts.Algorithm == "" {
		opts.Algorithm = digest.Default
	}
	if opts.Algorithm.HashLen() == 0 {
		return nil, Stats{}, domain.ErrInvalidArgument.WithDetailsf("unknown digest algorithm %q", opts.Algorithm)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	abs, err := ResolveRoot(root)
	if err != nil {
		return nil, Stats{}, err
	}

	s := &scanner{
		opts:    opts,
		root:    abs,
		lim:     newLimiter(opts.RateLimit),
		log:     logger.L(ctx).With("root", abs),
		records: cmap.New[digest.Digest](),
	}
	capturedAt := opts.Now()

	s.log.Info("scan started", "workers", opts.Workers, "algorithm", string(opts.Algorithm))

	jobs := make(chan string, opts.Workers*4)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		return s.walk(gctx, jobs)
	})
	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			return s.work(gctx, jobs)
		})
	}

	err = g.Wait()
	stats := s.c.stats(time.Since(start))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, stats, err
	}

	snap, err := sumfile.New(abs, capturedAt, s.records.Clone(), append([]sumfile.Option{sumfile.WithAlgorithm(opts.Algorithm)}, opts.Snapshot...)...)
	if err != nil {
		return nil, stats, err
	}
	s.log.Info("scan finished", "files", stats.Files, "bytes", stats.Bytes, "elapsed", stats.Elapsed)
	return snap, stats, nil
}

// ResolveRoot returns root as the absolute, symlink-free directory path
// that Build records and the registry is keyed by.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		return "", domain.ErrMissingArgument.WithDetails("directory to scan")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", domain.ErrInvalidArgument.WithDetails(root).WithCause(err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", domain.ErrStorage.WithDetails(root).WithCause(err)
	}
	if strings.ContainsAny(abs, "\n\r") {
		return "", domain.ErrInvalidArgument.WithDetailsf("%q: %v", abs, errUnencodable)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", domain.ErrStorage.WithDetails(root).WithCause(err)
	}
	if !st.IsDir() {
		return "", domain.ErrInvalidArgument.WithDetailsf("%s is not a directory", root)
	}
	return abs, nil
}

// errUnencodable marks names a sum file record cannot hold.
var errUnencodable = errors.New("name contains a line break")

func (s *scanner) walk(ctx context.Context, jobs chan<- string) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == s.root {
				return domain.ErrStorage.WithDetails(path).WithCause(err)
			}
			if ferr := s.fail(path, err); ferr != nil {
				return ferr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == s.root {
			return nil
		}

		if !s.opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			return skip(d)
		}
		for _, re := range s.opts.Exclude {
			if re.MatchString(path) {
				s.c.excluded.Add(1)
				return skip(d)
			}
		}

		if strings.ContainsAny(d.Name(), "\n\r") {
			if ferr := s.fail(path, errUnencodable); ferr != nil {
				return ferr
			}
			return skip(d)
		}

		switch {
		case d.IsDir():
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			if !s.followable(path) {
				s.c.symlinks.Add(1)
				return nil
			}
		case !d.Type().IsRegular():
			s.c.skipped.Add(1)
			return nil
		}

		select {
		case jobs <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func skip(d fs.DirEntry) error {
	if d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// followable reports whether path is a symlink that should be hashed as
// the regular file it points to.
func (s *scanner) followable(path string) bool {
	if !s.opts.FollowSymlinks {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func (s *scanner) work(ctx context.Context, jobs <-chan string) error {
	for path := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, n, err := s.hash(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if ferr := s.fail(path, err); ferr != nil {
				return ferr
			}
			continue
		}

		s.c.files.Add(1)
		s.c.bytes.Add(n)
		if s.opts.Progress != nil {
			s.opts.Progress(n)
		}
		s.records.Set(path, d)
	}
	return nil
}

func (s *scanner) hash(ctx context.Context, path string) (digest.Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return digest.Digest{}, 0, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return digest.Digest{}, 0, err
	}
	defer s.acquire(st.Size())()

	return digest.Sum(s.opts.Algorithm, throttle(ctx, f, s.lim))
}

// acquire takes the hashing gate for a file of size bytes and returns its
// release.
func (s *scanner) acquire(size int64) func() {
	if s.opts.BigFileBytes > 0 && size >= s.opts.BigFileBytes {
		s.gate.Lock()
		return s.gate.Unlock
	}
	s.gate.RLock()
	return s.gate.RUnlock
}

// fail records an unreadable entry. It returns a non-nil error only in
// strict mode.
func (s *scanner) fail(path string, err error) error {
	s.c.errors.Add(1)
	if s.opts.Strict {
		return domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	if errors.Is(err, fs.ErrPermission) {
		s.log.Warn("permission denied, skipping", "path", path)
		return nil
	}
	s.log.Warn("unreadable, skipping", "path", path, "error", err)
	return nil
}
