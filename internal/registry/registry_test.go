package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/internal/telemetry/logger"
)

func openTemp(t *testing.T, opts ...Option) (*Registry, string) {
	t.Helper()
	base := t.TempDir()
	dataDir := filepath.Join(base, "data", "zakopane")
	r, err := Open(dataDir, filepath.Join(dataDir, "sums"), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return r, dataDir
}

func TestOpen_FirstRun(t *testing.T) {
	r, dataDir := openTemp(t)

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	for _, dir := range []string{dataDir, r.SumsDir()} {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
	if _, err := os.Stat(r.Path()); !os.IsNotExist(err) {
		t.Error("Open() must not write the registry document")
	}
}

func TestOpen_MissingDirs(t *testing.T) {
	if _, err := Open("", "x"); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Open(\"\") error = %v", err)
	}
}

func TestLoad_SoftFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"wrong shape", `["a", "b"]`},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dataDir, FileName), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			var buf bytes.Buffer
			l, _ := logger.New(logger.Config{Level: "warn", Format: "json", Output: &buf})

			r, err := Open(dataDir, filepath.Join(dataDir, "sums"), WithLogger(l))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if r.Len() != 0 {
				t.Errorf("Len() = %d, want 0", r.Len())
			}
			if buf.Len() == 0 {
				t.Error("soft failure was not logged")
			}
		})
	}
}

func TestLoad_DropsDuplicateValues(t *testing.T) {
	dataDir := t.TempDir()
	doc := `{"/a": "same", "/b": "same", "/c": "other"}`
	if err := os.WriteFile(filepath.Join(dataDir, FileName), []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Open(dataDir, filepath.Join(dataDir, "sums"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (one duplicate value dropped)", r.Len())
	}
	if !r.Contains("/c") {
		t.Error("unique entry lost")
	}
}

func TestSetAndLookup(t *testing.T) {
	r, _ := openTemp(t)

	if err := r.Set("/home/kalvin", "tok-1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !r.Contains("/home/kalvin") {
		t.Error("Contains() = false after Set")
	}
	got, err := r.Lookup("/home/kalvin")
	if err != nil || got != "tok-1" {
		t.Errorf("Lookup() = %q, %v", got, err)
	}
	if _, err := r.Lookup("/nope"); !errors.Is(err, domain.ErrRegistryKeyNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrRegistryKeyNotFound", err)
	}
	if err := r.Set("", "x"); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Set(empty) error = %v", err)
	}
}

func TestUniqueness(t *testing.T) {
	r, _ := openTemp(t)

	token, err := r.Add("rootA")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := r.Set("rootA", "anything-else"); !errors.Is(err, domain.ErrRegistryKeyConflict) {
		t.Errorf("Set(existing key) error = %v, want ErrRegistryKeyConflict", err)
	}
	if err := r.Set("rootB", token); !errors.Is(err, domain.ErrRegistryValueConflict) {
		t.Errorf("Set(existing value) error = %v, want ErrRegistryValueConflict", err)
	}
	if r.Contains("rootB") {
		t.Error("failed Set mutated the registry")
	}
	if _, err := r.Add("rootA"); !errors.Is(err, domain.ErrRegistryKeyConflict) {
		t.Errorf("Add(existing) error = %v, want ErrRegistryKeyConflict", err)
	}
}

func TestDryCheck(t *testing.T) {
	r, _ := openTemp(t)
	if err := r.Set("/a", "tok-a"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		key   string
		value string
		want  Conflict
	}{
		{"no conflict", "/b", "tok-b", 0},
		{"key conflict", "/a", "tok-b", 1},
		{"value conflict", "/b", "tok-a", 2},
		{"both conflict", "/a", "tok-a", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.DryCheck(tt.key, tt.value); got != tt.want {
				t.Errorf("DryCheck() = %d, want %d", got, tt.want)
			}
			if r.Len() != 1 {
				t.Errorf("DryCheck() mutated the registry: Len() = %d", r.Len())
			}
		})
	}
}

func TestAdd_RetriesCollisionOnce(t *testing.T) {
	tokens := []string{"taken", "fresh"}
	gen := func() (string, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, nil
	}

	r, _ := openTemp(t, WithTokenFunc(gen))
	if err := r.Set("/existing", "taken"); err != nil {
		t.Fatal(err)
	}

	token, err := r.Add("/new")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if token != "fresh" {
		t.Errorf("Add() = %q, want the retried token", token)
	}
}

func TestAdd_GivesUpAfterSecondCollision(t *testing.T) {
	calls := 0
	gen := func() (string, error) {
		calls++
		return "taken", nil
	}

	r, _ := openTemp(t, WithTokenFunc(gen))
	if err := r.Set("/existing", "taken"); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Add("/new"); !errors.Is(err, domain.ErrTokenExhausted) {
		t.Errorf("Add() error = %v, want ErrTokenExhausted", err)
	}
	if calls != 2 {
		t.Errorf("token generated %d times, want 2", calls)
	}
	if r.Contains("/new") {
		t.Error("failed Add mutated the registry")
	}
}

func TestAdd_GeneratorError(t *testing.T) {
	boom := errors.New("no entropy")
	r, _ := openTemp(t, WithTokenFunc(func() (string, error) { return "", boom }))

	if _, err := r.Add("/x"); !errors.Is(err, boom) {
		t.Errorf("Add() error = %v, want %v", err, boom)
	}
}

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken() error = %v", err)
		}
		if len(tok) != 26 {
			t.Errorf("NewToken() = %q, want 26 characters", tok)
		}
		if seen[tok] {
			t.Errorf("NewToken() repeated %q", tok)
		}
		seen[tok] = true
	}
}

func TestCommit_RequiredForPersistence(t *testing.T) {
	r, dataDir := openTemp(t)
	token, err := r.Add("/home/kalvin")
	if err != nil {
		t.Fatal(err)
	}

	uncommitted, err := Open(dataDir, r.SumsDir())
	if err != nil {
		t.Fatal(err)
	}
	if uncommitted.Len() != 0 {
		t.Error("mutations persisted without Commit")
	}

	if err := r.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	reopened, err := Open(dataDir, r.SumsDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Lookup("/home/kalvin")
	if err != nil || got != token {
		t.Errorf("Lookup() after reopen = %q, %v; want %q", got, err, token)
	}
}

func TestCommit_OverwritesWholeDocument(t *testing.T) {
	r, dataDir := openTemp(t)
	if err := r.Set("/a", "tok-a"); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("/b", "tok-b"); err != nil {
		t.Fatal(err)
	}
	if err := r.Commit(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("registry document is not a JSON object: %v", err)
	}
	if len(doc) != 2 || doc["/a"] != "tok-a" || doc["/b"] != "tok-b" {
		t.Errorf("document = %v", doc)
	}

	st, err := os.Stat(filepath.Join(dataDir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 600", st.Mode().Perm())
	}

	entries, _ := os.ReadDir(dataDir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestEntriesSorted(t *testing.T) {
	r, _ := openTemp(t)
	for _, root := range []string{"/c", "/a", "/b"} {
		if err := r.Set(root, "tok"+root); err != nil {
			t.Fatal(err)
		}
	}

	var roots []string
	for _, e := range r.Entries() {
		roots = append(roots, e.Root)
	}
	if !slices.Equal(roots, []string{"/a", "/b", "/c"}) {
		t.Errorf("Entries() roots = %q", roots)
	}
}

func TestSnapshots(t *testing.T) {
	r, _ := openTemp(t)
	if err := r.Set("/srv", "tok"); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("/other", "tok2"); err != nil {
		t.Fatal(err)
	}

	t1 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	t2 := t1.Add(250 * time.Millisecond)

	p1, err := r.SnapshotPath("/srv", t1)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p1) != "tok-20240102T030405.000Z.sum" {
		t.Errorf("SnapshotPath() = %q", p1)
	}
	p2, _ := r.SnapshotPath("/srv", t2)
	if filepath.Base(p2) != "tok-20240102T030405.250Z.sum" {
		t.Errorf("SnapshotPath() = %q, want sub-second precision", p2)
	}
	other, _ := r.SnapshotPath("/other", t1)

	for _, p := range []string{p2, p1, other, filepath.Join(r.SumsDir(), "tok-notes.txt")} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.Snapshots("/srv")
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	if !slices.Equal(got, []string{p1, p2}) {
		t.Errorf("Snapshots() = %q, want %q", got, []string{p1, p2})
	}

	if _, err := r.Snapshots("/unregistered"); !errors.Is(err, domain.ErrRegistryKeyNotFound) {
		t.Errorf("Snapshots(unregistered) error = %v", err)
	}
}
