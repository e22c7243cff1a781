package config

import (
	"github.com/zakopane-go/zakopane/internal/infra/confloader"
)

// Loaded is a validated configuration with its resolved directories.
type Loaded struct {
	Config     *Config
	Paths      Paths
	FileLoaded bool
}

// Load layers defaults, the YAML file, ZAKOPANE_* environment variables
// and overrides, then validates the result. An empty configFile selects
// the default path, which may be absent; an explicit one must exist.
func Load(configFile string, overrides map[string]any) (*Loaded, error) {
	fileOpt := confloader.WithConfigFile(configFile)
	if configFile == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		configFile = path
		fileOpt = confloader.WithOptionalConfigFile(path)
	}

	l := confloader.NewLoader(
		confloader.WithDefaults(Defaults()),
		fileOpt,
		confloader.WithOverrides(overrides),
	)

	cfg := &Config{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, err
	}

	paths, err := ResolvePaths(cfg, configFile)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Paths: paths, FileLoaded: l.FileLoaded()}, nil
}
