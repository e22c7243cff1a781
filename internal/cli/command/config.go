package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/zakopane-go/zakopane/internal/cli/output"
	"github.com/zakopane-go/zakopane/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration inspection",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Flags:  []cli.Flag{formatFlag(output.FormatYAML)},
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file, data and sums directories",
				Action: configPath,
			},
			{
				Name:   "init",
				Usage:  "Create the configuration, data and sums directories",
				Action: configInit,
			},
		},
	}
}

// effectiveConfig is the merged configuration with resolved directories.
type effectiveConfig struct {
	config.Config `yaml:",inline"`
	ConfigFile    string `json:"config_file" yaml:"config_file"`
	FileLoaded    bool   `json:"file_loaded" yaml:"file_loaded"`
}

func configShow(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	cfg := *env.Config
	cfg.Storage.DataDir = env.Paths.DataDir
	cfg.Storage.SumsDir = env.Paths.SumsDir
	return render(c, effectiveConfig{
		Config:     cfg,
		ConfigFile: env.Paths.ConfigFile,
		FileLoaded: env.FileLoaded,
	})
}

func configPath(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "config: %s\ndata:   %s\nsums:   %s\n",
		env.Paths.ConfigFile, env.Paths.DataDir, env.Paths.SumsDir)
	return err
}

func configInit(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	if err := env.Paths.Ensure(); err != nil {
		return err
	}
	return configPath(c)
}
