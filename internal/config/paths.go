package config

import (
	"os"
	"path/filepath"

	"github.com/zakopane-go/zakopane/internal/core/domain"
)

// AppName names the per-application XDG subdirectories.
const AppName = "zakopane"

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// ConfigHome returns $XDG_CONFIG_HOME, or ~/.config when unset.
func ConfigHome() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataHome returns $XDG_DATA_HOME, or ~/.local/share when unset.
func DataHome() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", domain.ErrStorage.WithDetails("cannot resolve home directory").WithCause(err)
	}
	return filepath.Join(home, fallback), nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/zakopane/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := ConfigHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AppName, ConfigFileName), nil
}

// Paths holds the resolved directories zakopane works in.
type Paths struct {
	ConfigFile string
	DataDir    string
	SumsDir    string
}

// ResolvePaths fills in the storage directories cfg leaves empty. It does
// not touch the filesystem.
func ResolvePaths(cfg *Config, configFile string) (Paths, error) {
	p := Paths{
		ConfigFile: configFile,
		DataDir:    cfg.Storage.DataDir,
		SumsDir:    cfg.Storage.SumsDir,
	}
	if p.ConfigFile == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return Paths{}, err
		}
		p.ConfigFile = path
	}
	if p.DataDir == "" {
		home, err := DataHome()
		if err != nil {
			return Paths{}, err
		}
		p.DataDir = filepath.Join(home, AppName)
	}
	if p.SumsDir == "" {
		p.SumsDir = filepath.Join(p.DataDir, SumsDirName)
	}
	return p, nil
}

// Ensure creates the config, data and sums directories.
func (p Paths) Ensure() error {
	for _, dir := range []string{filepath.Dir(p.ConfigFile), p.DataDir, p.SumsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return domain.ErrStorage.WithDetails(dir).WithCause(err)
		}
	}
	return nil
}
