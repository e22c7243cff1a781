package sumfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zakopane-go/zakopane/pkg/digest"
)

func TestWriteTo_Layout(t *testing.T) {
	a, b := mustDigest(t, "a"), mustDigest(t, "b")
	s, err := New("/srv", time.Unix(1700000000, 0), map[string]digest.Digest{
		"/srv/z.txt":      a,
		"/srv/a file.txt": b,
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() = %d, wrote %d", n, buf.Len())
	}

	want := strings.Join([]string{
		Sentinel,
		"Root: /srv",
		"When: 1700000000.000000",
		"Algorithm: sha512",
		Sentinel,
		"/srv/a file.txt " + b.Value(),
		"/srv/z.txt " + a.Value(),
	}, "\n") + "\n"
	if buf.String() != want {
		t.Errorf("WriteTo() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	records := map[string]digest.Digest{
		"/srv/one":          mustDigest(t, "1"),
		"/srv/two words":    mustDigest(t, "2"),
		"/srv/sub/three 3 ": mustDigest(t, "3"),
	}
	s, err := New("/srv", time.Unix(1700000000, 123456000), records,
		WithMetadata(map[string]string{"Host": "wyvern"}))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "snap.sum")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := Open(path, ModeRead, WithStrictPaths(true))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got.Root() != s.Root() || got.Compare(s) != 0 {
		t.Errorf("header mismatch: root %q when %v", got.Root(), got.CapturedAt())
	}
	if got.Metadata()["Host"] != "wyvern" {
		t.Error("opaque metadata lost")
	}
	for path, want := range records {
		d, err := got.Get(path)
		if err != nil || !d.Equal(want) {
			t.Errorf("Get(%q) = %s, %v", path, d, err)
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.sum")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, _ := New("/", time.Unix(1, 0), nil)
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Open(path, ModeRead); err != nil {
		t.Errorf("Open() after replace error = %v", err)
	}
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	s, _ := New("/", time.Unix(1, 0), nil)
	err := s.WriteFile(filepath.Join(t.TempDir(), "nope", "snap.sum"))
	if err == nil {
		t.Fatal("WriteFile() into a missing directory should fail")
	}
}
