package config

import "github.com/zakopane-go/zakopane/pkg/digest"

// Default configuration values.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	DefaultWorkers = 8

	// SumsDirName is the sums directory inside the data directory.
	SumsDirName = "sums"
)

// Default returns the default configuration. Storage directories are left
// empty and resolved by Paths.
func Default() *Config {
	return &Config{
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Scan: ScanSection{
			Algorithm:     string(digest.Default),
			Workers:       DefaultWorkers,
			IncludeHidden: true,
		},
	}
}

// Defaults returns Default as a nested map for the lowest configuration
// layer.
func Defaults() map[string]any {
	d := Default()
	return map[string]any{
		"log": map[string]any{
			"level":  d.Log.Level,
			"format": d.Log.Format,
		},
		"storage": map[string]any{
			"data_dir": d.Storage.DataDir,
			"sums_dir": d.Storage.SumsDir,
		},
		"scan": map[string]any{
			"algorithm":       d.Scan.Algorithm,
			"workers":         d.Scan.Workers,
			"rate_limit":      d.Scan.RateLimit,
			"big_file_bytes":  d.Scan.BigFileBytes,
			"follow_symlinks": d.Scan.FollowSymlinks,
			"include_hidden":  d.Scan.IncludeHidden,
			"strict":          d.Scan.Strict,
			"exclude":         []string{},
		},
		"compare": map[string]any{
			"policy_file":    d.Compare.PolicyFile,
			"default_policy": d.Compare.DefaultPolicy,
		},
		"snapshot": map[string]any{
			"strict_paths":     d.Snapshot.StrictPaths,
			"retain_raw_lines": d.Snapshot.RetainRawLines,
		},
	}
}
