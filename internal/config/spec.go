package config

// Config is the root configuration for zakopane.
type Config struct {
	Log      LogSection      `koanf:"log" json:"log" yaml:"log"`
	Storage  StorageSection  `koanf:"storage" json:"storage" yaml:"storage"`
	Scan     ScanSection     `koanf:"scan" json:"scan" yaml:"scan"`
	Snapshot SnapshotSection `koanf:"snapshot" json:"snapshot" yaml:"snapshot"`
	Compare  CompareSection  `koanf:"compare" json:"compare" yaml:"compare"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// StorageSection configures where the registry and sum files live.
type StorageSection struct {
	// DataDir holds registry.json. Empty means $XDG_DATA_HOME/zakopane.
	DataDir string `koanf:"data_dir" json:"data_dir" yaml:"data_dir"`
	// SumsDir holds sum files. Empty means <DataDir>/sums.
	SumsDir string `koanf:"sums_dir" json:"sums_dir" yaml:"sums_dir"`
}

// ScanSection configures snapshot creation.
type ScanSection struct {
	Algorithm string `koanf:"algorithm" json:"algorithm" yaml:"algorithm"`
	Workers   int    `koanf:"workers" json:"workers" yaml:"workers"`
	// RateLimit caps hashing throughput in bytes per second. 0 is unlimited.
	RateLimit      int64    `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	// BigFileBytes is the size from which a file is hashed with no other
	// file in flight. 0 disables it.
	BigFileBytes   int64    `koanf:"big_file_bytes" json:"big_file_bytes" yaml:"big_file_bytes"`
	FollowSymlinks bool     `koanf:"follow_symlinks" json:"follow_symlinks" yaml:"follow_symlinks"`
	IncludeHidden  bool     `koanf:"include_hidden" json:"include_hidden" yaml:"include_hidden"`
	Strict         bool     `koanf:"strict" json:"strict" yaml:"strict"`
	Exclude        []string `koanf:"exclude" json:"exclude" yaml:"exclude"`
}

// CompareSection configures which changes compare reports.
type CompareSection struct {
	// PolicyFile maps path prefixes to policies. Empty reports every change.
	PolicyFile string `koanf:"policy_file" json:"policy_file" yaml:"policy_file"`
	// DefaultPolicy overrides the policy file's default-policy.
	DefaultPolicy string `koanf:"default_policy" json:"default_policy" yaml:"default_policy"`
}

// SnapshotSection configures sum-file loading.
type SnapshotSection struct {
	StrictPaths    bool `koanf:"strict_paths" json:"strict_paths" yaml:"strict_paths"`
	RetainRawLines bool `koanf:"retain_raw_lines" json:"retain_raw_lines" yaml:"retain_raw_lines"`
}
