package command

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/zakopane-go/zakopane/internal/cli/output"
	"github.com/zakopane-go/zakopane/internal/config"
	"github.com/zakopane-go/zakopane/internal/infra/buildinfo"
	"github.com/zakopane-go/zakopane/internal/registry"
	"github.com/zakopane-go/zakopane/internal/telemetry/logger"
)

const envKey = "zakopane.env"

// Env is the per-invocation state built by the root Before hook.
type Env struct {
	Config     *config.Config
	Paths      config.Paths
	FileLoaded bool
	Log        logger.Logger
	RunID      string
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "zakopane",
		Usage:   "record and compare file checksum snapshots",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ChecksumCommand(),
			CompareCommand(),
			RegistryCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "configuration file (default $XDG_CONFIG_HOME/zakopane/config.yaml)",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "directory holding the registry and sum files (default $XDG_DATA_HOME/zakopane)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "text or json",
		},
	}
}

// flagOverrides maps explicitly set global flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for flag, key := range map[string]string{
		"data-dir":   "storage.data_dir",
		"log-level":  "log.level",
		"log-format": "log.format",
	} {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	return out
}

func setup(c *cli.Context) error {
	loaded, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  loaded.Config.Log.Level,
		Format: loaded.Config.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	env := &Env{
		Config:     loaded.Config,
		Paths:      loaded.Paths,
		FileLoaded: loaded.FileLoaded,
		Log:        log,
		RunID:      strings.ToLower(ulid.Make().String()),
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = env
	log.Debug("configuration loaded", "file", loaded.Paths.ConfigFile, "file_loaded", loaded.FileLoaded, "data_dir", loaded.Paths.DataDir)
	return nil
}

func envFrom(c *cli.Context) (*Env, error) {
	env, ok := c.App.Metadata[envKey].(*Env)
	if !ok {
		return nil, errors.New("command: configuration not loaded")
	}
	return env, nil
}

// runContext carries the logger and the run ID for this invocation.
func (e *Env) runContext(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return logger.WithRunID(logger.WithLogger(parent, e.Log), e.RunID)
}

// openRegistry opens the registry under the configured data directory.
func (e *Env) openRegistry() (*registry.Registry, error) {
	return registry.Open(e.Paths.DataDir, e.Paths.SumsDir, registry.WithLogger(e.Log))
}

func formatFlag(def output.Format) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format: text, table, json or yaml",
		Value:   string(def),
	}
}

// render writes data to the app writer in the format chosen by --format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}
