package command

import (
	"fmt"
	"slices"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/zakopane-go/zakopane/internal/cli/output"
	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/internal/registry"
	"github.com/zakopane-go/zakopane/internal/scan"
	"github.com/zakopane-go/zakopane/internal/sumfile"
)

// RegistryCommand returns the registry subcommand group.
func RegistryCommand() *cli.Command {
	return &cli.Command{
		Name:  "registry",
		Usage: "Inspect and edit the directory registry",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered directories and their tokens",
				Flags:  []cli.Flag{formatFlag(output.FormatTable)},
				Action: registryList,
			},
			{
				Name:      "show",
				Usage:     "Show the token and sum files of DIR",
				ArgsUsage: "DIR",
				Flags:     []cli.Flag{formatFlag(output.FormatTable)},
				Action:    registryShow,
			},
			{
				Name:      "add",
				Usage:     "Register DIR under a fresh token",
				ArgsUsage: "DIR",
				Action:    registryAdd,
			},
			{
				Name:      "check",
				Usage:     "Report whether DIR could be registered under TOKEN",
				ArgsUsage: "DIR TOKEN",
				Action:    registryCheck,
			},
			{
				Name:      "history",
				Usage:     "List the snapshots recorded for DIR, oldest first",
				ArgsUsage: "DIR",
				Flags:     []cli.Flag{formatFlag(output.FormatTable)},
				Action:    registryHistory,
			},
			{
				Name:   "export",
				Usage:  "Print the registry document",
				Action: registryExport,
			},
		},
	}
}

func registryList(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	reg, err := env.openRegistry()
	if err != nil {
		return err
	}
	return render(c, reg.Entries())
}

// rootArg resolves the DIR argument the way checksum records it.
func rootArg(c *cli.Context, want int) (string, error) {
	if c.NArg() != want {
		return "", domain.ErrMissingArgument.WithDetailsf("%s takes %s", c.Command.Name, c.Command.ArgsUsage)
	}
	return scan.ResolveRoot(c.Args().First())
}

type rootDetail struct {
	Root      string   `json:"root" yaml:"root"`
	Token     string   `json:"token" yaml:"token"`
	SumFiles  []string `json:"sum_files" yaml:"sum_files"`
	Snapshots int      `json:"snapshots" yaml:"snapshots"`
}

func registryShow(c *cli.Context) error {
	root, err := rootArg(c, 1)
	if err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	reg, err := env.openRegistry()
	if err != nil {
		return err
	}
	token, err := reg.Lookup(root)
	if err != nil {
		return err
	}
	files, err := reg.Snapshots(root)
	if err != nil {
		return err
	}
	return render(c, rootDetail{Root: root, Token: token, SumFiles: files, Snapshots: len(files)})
}

func registryAdd(c *cli.Context) error {
	root, err := rootArg(c, 1)
	if err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	reg, err := env.openRegistry()
	if err != nil {
		return err
	}
	token, err := reg.Add(root)
	if err != nil {
		return err
	}
	if err := reg.Commit(); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, token)
	return err
}

func registryCheck(c *cli.Context) error {
	if c.NArg() != 2 {
		return domain.ErrMissingArgument.WithDetails("check takes DIR TOKEN")
	}
	root, err := scan.ResolveRoot(c.Args().Get(0))
	if err != nil {
		return err
	}
	token := c.Args().Get(1)
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	reg, err := env.openRegistry()
	if err != nil {
		return err
	}

	conflict := reg.DryCheck(root, token)
	if conflict&registry.ConflictKey != 0 {
		return domain.ErrRegistryKeyConflict.WithDetails(root)
	}
	if conflict&registry.ConflictValue != 0 {
		return domain.ErrRegistryValueConflict.WithDetails(token)
	}
	_, err = fmt.Fprintln(c.App.Writer, "ok")
	return err
}

type historyEntry struct {
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
	Files      int       `json:"files" yaml:"files"`
	Algorithm  string    `json:"algorithm" yaml:"algorithm"`
	Path       string    `json:"path" yaml:"path"`
}

func registryHistory(c *cli.Context) error {
	root, err := rootArg(c, 1)
	if err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	reg, err := env.openRegistry()
	if err != nil {
		return err
	}
	files, err := reg.Snapshots(root)
	if err != nil {
		return err
	}

	type loaded struct {
		snap *sumfile.Snapshot
		path string
	}
	var snaps []loaded
	for _, f := range files {
		s, err := sumfile.Open(f, sumfile.ModeRead)
		if err != nil {
			env.Log.Warn("unreadable snapshot skipped", "path", f, "error", err)
			continue
		}
		snaps = append(snaps, loaded{snap: s, path: f})
	}
	slices.SortStableFunc(snaps, func(a, b loaded) int { return sumfile.ByCapturedAt(a.snap, b.snap) })

	out := make([]historyEntry, 0, len(snaps))
	for _, l := range snaps {
		out = append(out, historyEntry{
			CapturedAt: l.snap.Time(),
			Files:      l.snap.Len(),
			Algorithm:  string(l.snap.Algorithm()),
			Path:       l.path,
		})
	}
	return render(c, out)
}

func registryExport(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	reg, err := env.openRegistry()
	if err != nil {
		return err
	}
	return reg.Export(c.App.Writer)
}
