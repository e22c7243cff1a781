package registry

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/internal/telemetry/logger"
)

// FileName is the registry document inside the data directory.
const FileName = "registry.json"

// Conflict is a bitmask describing which uniqueness rules a Set would break.
type Conflict int

const (
	// ConflictKey means the root is already registered.
	ConflictKey Conflict = 1 << iota
	// ConflictValue means another root already uses the identifier.
	ConflictValue

	// NoConflict means Set would succeed.
	NoConflict Conflict = 0
)

// Entry is one registered root.
type Entry struct {
	Root  string `json:"root" yaml:"root"`
	Token string `json:"token" yaml:"token"`
}

// TokenFunc generates a fresh identifier.
type TokenFunc func() (string, error)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report soft load failures.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// WithTokenFunc replaces the identifier generator.
func WithTokenFunc(fn TokenFunc) Option {
	return func(r *Registry) {
		r.newToken = fn
	}
}

// Registry is the in-memory view of the persisted root-to-identifier map.
// It is not safe for concurrent use.
type Registry struct {
	dataDir string
	sumsDir string
	path    string

	entries map[string]string
	values  map[string]struct{}

	newToken TokenFunc
	log      logger.Logger
}

// Open creates dataDir and sumsDir if missing and loads the registry
// document from dataDir.
func Open(dataDir, sumsDir string, opts ...Option) (*Registry, error) {
	if dataDir == "" || sumsDir == "" {
		return nil, domain.ErrMissingArgument.WithDetails("registry needs a data and a sums directory")
	}
	for _, dir := range []string{dataDir, sumsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, domain.ErrStorage.WithDetails(dir).WithCause(err)
		}
	}

	r := &Registry{
		dataDir:  dataDir,
		sumsDir:  sumsDir,
		path:     filepath.Join(dataDir, FileName),
		newToken: NewToken,
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Load()
	return r, nil
}

// NewToken returns a lowercase ULID.
func NewToken() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return strings.ToLower(id.String()), nil
}

// Path returns the location of the registry document.
func (r *Registry) Path() string { return r.path }

// SumsDir returns the directory holding the sum files the registry names.
func (r *Registry) SumsDir() string { return r.sumsDir }

// Load replaces the in-memory state with the persisted document. A missing,
// unreadable or invalid document yields an empty registry instead of an
// error, which is what a first run looks like.
func (r *Registry) Load() {
	r.entries = make(map[string]string)
	r.values = make(map[string]struct{})

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("registry unreadable, starting empty", "path", r.path, "error", err)
		}
		return
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		r.log.Warn("registry invalid, starting empty", "path", r.path, "error", err)
		return
	}
	for k, v := range doc {
		if err := r.Set(k, v); err != nil {
			r.log.Warn("registry entry skipped", "root", k, "error", err)
		}
	}
}

// Len returns the number of registered roots.
func (r *Registry) Len() int { return len(r.entries) }

// Contains reports whether root is registered.
func (r *Registry) Contains(root string) bool {
	_, ok := r.entries[root]
	return ok
}

// Lookup returns the identifier registered for root.
func (r *Registry) Lookup(root string) (string, error) {
	v, ok := r.entries[root]
	if !ok {
		return "", domain.ErrRegistryKeyNotFound.WithDetails(root)
	}
	return v, nil
}

// DryCheck reports which conflicts Set(root, token) would hit, without
// changing anything.
func (r *Registry) DryCheck(root, token string) Conflict {
	c := NoConflict
	if _, ok := r.entries[root]; ok {
		c |= ConflictKey
	}
	if _, ok := r.values[token]; ok {
		c |= ConflictValue
	}
	return c
}

// Set registers root under token. It fails if root is already registered
// or token already names another root.
func (r *Registry) Set(root, token string) error {
	if root == "" || token == "" {
		return domain.ErrMissingArgument.WithDetails("root and token must be non-empty")
	}
	switch c := r.DryCheck(root, token); {
	case c&ConflictKey != 0:
		return domain.ErrRegistryKeyConflict.WithDetails(root)
	case c&ConflictValue != 0:
		return domain.ErrRegistryValueConflict.WithDetails(token)
	}

	r.entries[root] = token
	r.values[token] = struct{}{}
	return nil
}

// Add registers root under a freshly generated identifier and returns it.
// A collision on the generated identifier is retried once.
func (r *Registry) Add(root string) (string, error) {
	if r.Contains(root) {
		return "", domain.ErrRegistryKeyConflict.WithDetails(root)
	}

	for attempt := 0; attempt < 2; attempt++ {
		token, err := r.newToken()
		if err != nil {
			return "", fmt.Errorf("registry: generate token: %w", err)
		}
		if r.DryCheck(root, token)&ConflictValue != 0 {
			r.log.Warn("generated token collided", "token", token, "attempt", attempt+1)
			continue
		}
		return token, r.Set(root, token)
	}
	return "", domain.ErrTokenExhausted.WithDetails(root)
}

// Entries returns every registration sorted by root.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for k, v := range r.entries {
		out = append(out, Entry{Root: k, Token: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Root < out[j].Root })
	return out
}

// Commit overwrites the persisted document with the in-memory registry.
func (r *Registry) Commit() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(r.dataDir, "."+FileName+".*.tmp")
	if err != nil {
		return domain.ErrStorage.WithDetails(r.path).WithCause(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeAndSync(tmp, data); err != nil {
		return domain.ErrStorage.WithDetails(r.path).WithCause(err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return domain.ErrStorage.WithDetails(r.path).WithCause(fmt.Errorf("rename: %w", err))
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	return f.Close()
}

// Export writes the registry document to w without committing it.
func (r *Registry) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.entries)
}
