package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zakopane-go/zakopane/internal/core/domain"
)

func isolateXDG(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	return base
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Scan.Algorithm != "sha512" {
		t.Errorf("scan.algorithm = %q, want sha512", cfg.Scan.Algorithm)
	}
	if cfg.Scan.Workers != DefaultWorkers {
		t.Errorf("scan.workers = %d, want %d", cfg.Scan.Workers, DefaultWorkers)
	}
	if !cfg.Scan.IncludeHidden {
		t.Error("hidden files should be included by default")
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"unknown algorithm", func(c *Config) { c.Scan.Algorithm = "md5" }},
		{"zero workers", func(c *Config) { c.Scan.Workers = 0 }},
		{"negative rate", func(c *Config) { c.Scan.RateLimit = -1 }},
		{"negative big file bytes", func(c *Config) { c.Scan.BigFileBytes = -1 }},
		{"bad default policy", func(c *Config) { c.Compare.DefaultPolicy = "readonly" }},
		{"bad exclude", func(c *Config) { c.Scan.Exclude = []string{"(unclosed"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := Verify(cfg); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("Verify() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCompileExcludes(t *testing.T) {
	res, err := CompileExcludes([]string{`/\.git$`, `\.cache/`})
	if err != nil {
		t.Fatalf("CompileExcludes() error = %v", err)
	}
	if len(res) != 2 || !res[0].MatchString("/src/.git") {
		t.Errorf("CompileExcludes() = %v", res)
	}
}

func TestXDGFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "relative/is/ignored")

	cfgHome, err := ConfigHome()
	if err != nil {
		t.Fatal(err)
	}
	if cfgHome != filepath.Join(home, ".config") {
		t.Errorf("ConfigHome() = %q", cfgHome)
	}
	dataHome, err := DataHome()
	if err != nil {
		t.Fatal(err)
	}
	if dataHome != filepath.Join(home, ".local", "share") {
		t.Errorf("DataHome() = %q", dataHome)
	}
}

func TestResolvePaths(t *testing.T) {
	base := isolateXDG(t)

	p, err := ResolvePaths(Default(), "")
	if err != nil {
		t.Fatalf("ResolvePaths() error = %v", err)
	}
	want := Paths{
		ConfigFile: filepath.Join(base, "config", "zakopane", "config.yaml"),
		DataDir:    filepath.Join(base, "data", "zakopane"),
		SumsDir:    filepath.Join(base, "data", "zakopane", "sums"),
	}
	if p != want {
		t.Errorf("ResolvePaths() = %+v, want %+v", p, want)
	}
	if _, err := os.Stat(p.DataDir); !os.IsNotExist(err) {
		t.Error("ResolvePaths() must not create directories")
	}

	if err := p.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	for _, dir := range []string{filepath.Dir(p.ConfigFile), p.DataDir, p.SumsDir} {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

func TestResolvePaths_Explicit(t *testing.T) {
	isolateXDG(t)
	cfg := Default()
	cfg.Storage.DataDir = "/srv/zk"

	p, err := ResolvePaths(cfg, "/etc/zk.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if p.ConfigFile != "/etc/zk.yaml" || p.DataDir != "/srv/zk" || p.SumsDir != filepath.Join("/srv/zk", "sums") {
		t.Errorf("ResolvePaths() = %+v", p)
	}
}

func TestLoad_NoFile(t *testing.T) {
	isolateXDG(t)

	loaded, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.FileLoaded {
		t.Error("FileLoaded = true without a config file")
	}
	if loaded.Config.Scan.Workers != DefaultWorkers || loaded.Config.Log.Level != DefaultLogLevel {
		t.Errorf("Load() = %+v, want defaults", loaded.Config)
	}
}

func TestLoad_Layers(t *testing.T) {
	base := isolateXDG(t)
	path := filepath.Join(base, "config", "zakopane", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	content := `
scan:
  algorithm: blake2b-512
  workers: 2
  exclude: ['\.git$']
storage:
  data_dir: /tmp/zk-data
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ZAKOPANE_SCAN_WORKERS", "3")
	t.Setenv("ZAKOPANE_SNAPSHOT_STRICT_PATHS", "true")

	loaded, err := Load("", map[string]any{"log.level": "debug"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := loaded.Config

	if !loaded.FileLoaded {
		t.Error("FileLoaded = false")
	}
	if cfg.Scan.Algorithm != "blake2b-512" {
		t.Errorf("algorithm = %q", cfg.Scan.Algorithm)
	}
	if cfg.Scan.Workers != 3 {
		t.Errorf("workers = %d, want env value 3", cfg.Scan.Workers)
	}
	if !cfg.Snapshot.StrictPaths {
		t.Error("snapshot.strict_paths not read from env")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want override", cfg.Log.Level)
	}
	if len(cfg.Scan.Exclude) != 1 {
		t.Errorf("exclude = %v", cfg.Scan.Exclude)
	}
	if !cfg.Scan.IncludeHidden {
		t.Error("default lost during merge")
	}
	if loaded.Paths.DataDir != "/tmp/zk-data" || loaded.Paths.SumsDir != "/tmp/zk-data/sums" {
		t.Errorf("paths = %+v", loaded.Paths)
	}
}

func TestLoad_Invalid(t *testing.T) {
	isolateXDG(t)
	t.Setenv("ZAKOPANE_SCAN_ALGORITHM", "crc32")

	if _, err := Load("", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Load() error = %v, want ErrInvalidArgument", err)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolateXDG(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}
