package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// testEnv isolates XDG directories and environment configuration.
type testEnv struct {
	t       *testing.T
	base    string
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "ZAKOPANE_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return &testEnv{t: t, base: base, dataDir: filepath.Join(base, "data", "zakopane")}
}

// run executes the app with args and returns stdout and stderr.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"zakopane"}, args...))
	return stdout.String(), stderr.String(), err
}

// mustRun fails the test when the command returns an error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	stdout, stderr, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("zakopane %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return stdout
}

// tree creates files under a new directory and returns its path.
func (e *testEnv) tree(name string, files map[string]string) string {
	e.t.Helper()
	root := filepath.Join(e.base, name)
	for rel, content := range files {
		e.write(filepath.Join(root, rel), content)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		e.t.Fatal(err)
	}
	return root
}

func (e *testEnv) write(path, content string) {
	e.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatal(err)
	}
}

// fakeClock makes every snapshot a second newer than the previous one.
func fakeClock(t *testing.T) {
	t.Helper()
	var mu sync.Mutex
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
	t.Cleanup(func() { now = orig })
}

// frozenClock stamps every snapshot with the same instant.
func frozenClock(t *testing.T) {
	t.Helper()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = orig })
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func removeFile(path string) error {
	return os.Remove(path)
}
