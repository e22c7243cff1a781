package command

import (
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/zakopane-go/zakopane/internal/cli/output"
	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/internal/diff"
	"github.com/zakopane-go/zakopane/internal/scan"
	"github.com/zakopane-go/zakopane/internal/sumfile"
	"github.com/zakopane-go/zakopane/internal/telemetry/logger"
	"github.com/zakopane-go/zakopane/internal/telemetry/metric"
)

// CompareCommand returns the compare command.
func CompareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "List files whose content changed between two snapshots",
		ArgsUsage: "OLD NEW",
		Description: "Only files recorded in both snapshots are compared; added and\n" +
			"removed files are not reported. The exit status does not depend on\n" +
			"whether anything changed.\n\n" +
			"A policy file maps path prefixes to comma-separated policies\n" +
			"(ignore, noadd, nodelete, nomodify, immutable). Only changed paths whose\n" +
			"longest matching prefix includes nomodify are reported.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "compare the two newest snapshots registered for `DIR`",
			},
			formatFlag(output.FormatText),
			&cli.BoolFlag{
				Name:  "strict-paths",
				Usage: "reject sum files that list a path twice (default snapshot.strict_paths)",
			},
			&cli.StringFlag{
				Name:    "policy-file",
				Aliases: []string{"p"},
				Usage:   "report only changes to paths held to nomodify by the YAML policy `FILE` (default compare.policy_file)",
			},
			&cli.StringFlag{
				Name:    "default-policy",
				Aliases: []string{"d"},
				Usage:   "policy for paths no prefix matches, e.g. ignore or nomodify (default compare.default_policy)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write the number of changed paths to `FILE` as a Prometheus metric",
			},
		},
		Action: compareAction,
	}
}

// changeList renders as bare paths in text format.
type changeList []diff.Change

func (l changeList) Lines() []string {
	out := make([]string, len(l))
	for i, ch := range l {
		out[i] = ch.Path
	}
	return out
}

func compareAction(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	log := logger.L(env.runContext(c.Context))

	oldPath, newPath, err := comparePaths(c, env)
	if err != nil {
		return err
	}

	strict := env.Config.Snapshot.StrictPaths
	if c.IsSet("strict-paths") {
		strict = c.Bool("strict-paths")
	}
	opts := []sumfile.Option{
		sumfile.WithStrictPaths(strict),
		sumfile.WithRetainRawLines(env.Config.Snapshot.RetainRawLines),
	}

	older, err := sumfile.Open(oldPath, sumfile.ModeRead, opts...)
	if err != nil {
		return err
	}
	newer, err := sumfile.Open(newPath, sumfile.ModeRead, opts...)
	if err != nil {
		return err
	}
	if older.Root() != newer.Root() {
		log.Warn("snapshots cover different roots", "old", older.Root(), "new", newer.Root())
	}
	if older.Algorithm() != newer.Algorithm() {
		log.Warn("snapshots use different algorithms, every shared path will differ",
			"old", string(older.Algorithm()), "new", string(newer.Algorithm()))
	}
	if sumfile.ByCapturedAt(older, newer) > 0 {
		log.Info("OLD was captured after NEW", "old", oldPath, "new", newPath)
	}

	changes := diff.Changes(older, newer)
	log.Info("compared", "old", oldPath, "new", newPath, "changed", len(changes))

	policies, err := comparePolicies(c, env)
	if err != nil {
		return err
	}
	if policies != nil {
		changes = diff.Violations(changes, policies)
		log.Info("policies applied", "rules", policies.Rules(), "default", policies.Default().String(), "violations", len(changes))
	}

	if f := c.String("metrics-file"); f != "" {
		m := metric.NewRegistry()
		m.ObserveCompare(newer.Root(), len(changes))
		if err := m.WriteTextfile(f); err != nil {
			return domain.ErrStorage.WithDetails(f).WithCause(err)
		}
	}

	return render(c, changeList(changes))
}

// comparePolicies returns the policy set chosen by flags or configuration,
// or nil when every change is reported.
func comparePolicies(c *cli.Context, env *Env) (*diff.Policies, error) {
	file := env.Config.Compare.PolicyFile
	if c.IsSet("policy-file") {
		file = c.String("policy-file")
	}
	def := env.Config.Compare.DefaultPolicy
	if c.IsSet("default-policy") {
		def = c.String("default-policy")
	}
	if file == "" && def == "" {
		return nil, nil
	}

	policies := diff.NewPolicies(diff.Immutable, nil)
	if file != "" {
		p, err := diff.LoadPolicies(file)
		if err != nil {
			return nil, err
		}
		policies = p
	}
	if def != "" {
		p, err := diff.ParsePolicy(def)
		if err != nil {
			return nil, err
		}
		policies = policies.WithDefault(p)
	}
	return policies, nil
}

// comparePaths returns the two sum files to compare, from the arguments
// or from the registry history of --root.
func comparePaths(c *cli.Context, env *Env) (string, string, error) {
	root := c.String("root")
	if root == "" {
		if c.NArg() != 2 {
			return "", "", domain.ErrMissingArgument.WithDetails("compare needs OLD and NEW sum files, or --root DIR")
		}
		return c.Args().Get(0), c.Args().Get(1), nil
	}
	if c.NArg() != 0 {
		return "", "", domain.ErrInvalidArgument.WithDetails("--root takes no sum file arguments")
	}

	abs, err := scan.ResolveRoot(root)
	if err != nil {
		return "", "", err
	}
	reg, err := env.openRegistry()
	if err != nil {
		return "", "", err
	}
	paths, err := reg.Snapshots(abs)
	if err != nil {
		return "", "", err
	}
	if len(paths) < 2 {
		return "", "", domain.ErrInvalidArgument.WithDetailsf("%s has %d snapshot(s), need two", abs, len(paths))
	}

	snaps := make([]*sumfile.Snapshot, 0, len(paths))
	byTime := make(map[*sumfile.Snapshot]string, len(paths))
	for _, p := range paths {
		s, err := sumfile.Open(p, sumfile.ModeRead)
		if err != nil {
			env.Log.Warn("unreadable snapshot skipped", "path", p, "error", err)
			continue
		}
		snaps = append(snaps, s)
		byTime[s] = p
	}
	if len(snaps) < 2 {
		return "", "", domain.ErrInvalidArgument.WithDetailsf("%s has fewer than two readable snapshots", abs)
	}
	slices.SortStableFunc(snaps, sumfile.ByCapturedAt)
	n := len(snaps)
	return byTime[snaps[n-2]], byTime[snaps[n-1]], nil
}
