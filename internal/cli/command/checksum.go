package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/zakopane-go/zakopane/internal/cli/output"
	"github.com/zakopane-go/zakopane/internal/config"
	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/internal/infra/shutdown"
	"github.com/zakopane-go/zakopane/internal/registry"
	"github.com/zakopane-go/zakopane/internal/scan"
	"github.com/zakopane-go/zakopane/internal/sumfile"
	"github.com/zakopane-go/zakopane/internal/telemetry/logger"
	"github.com/zakopane-go/zakopane/internal/telemetry/metric"
	"github.com/zakopane-go/zakopane/pkg/digest"
)

const shutdownTimeout = 5 * time.Second

// now stamps new snapshots.
var now = time.Now

// ChecksumCommand returns the checksum command.
func ChecksumCommand() *cli.Command {
	return &cli.Command{
		Name:      "checksum",
		Usage:     "Hash every file under DIR and record a snapshot",
		ArgsUsage: "DIR",
		Description: "Without --output, DIR is registered if needed and the sum file is\n" +
			"written to the sums directory. The written path is printed.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "number of files hashed in parallel (default scan.workers)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the sum file to `FILE` instead of the sums directory",
			},
			&cli.Int64Flag{
				Name:  "rate",
				Usage: "cap read throughput in bytes per second (default scan.rate_limit)",
			},
			&cli.Int64Flag{
				Name:    "big-file-bytes",
				Aliases: []string{"single-threaded-checksum-byte-threshold"},
				Usage:   "hash files of at least `N` bytes one at a time (default scan.big_file_bytes)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "skip paths matching `REGEXP`, in addition to scan.exclude",
			},
			&cli.StringFlag{
				Name:  "algorithm",
				Usage: "digest algorithm: sha512 or blake2b-512 (default scan.algorithm)",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail on unreadable files instead of skipping them",
			},
			&cli.BoolFlag{
				Name:  "follow-symlinks",
				Usage: "hash regular files reached through symlinks",
			},
			&cli.BoolFlag{
				Name:  "skip-hidden",
				Usage: "ignore files and directories whose name starts with a dot",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics for this scan to `FILE`",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "draw a progress line on stderr",
			},
		},
		Action: checksumAction,
	}
}

// scanOptions merges the scan section with explicitly set flags.
func scanOptions(c *cli.Context, cfg *config.Config) (scan.Options, error) {
	sc := cfg.Scan
	if c.IsSet("jobs") {
		sc.Workers = c.Int("jobs")
	}
	if c.IsSet("rate") {
		sc.RateLimit = c.Int64("rate")
	}
	if c.IsSet("big-file-bytes") {
		sc.BigFileBytes = c.Int64("big-file-bytes")
	}
	if c.IsSet("algorithm") {
		sc.Algorithm = c.String("algorithm")
	}
	if c.IsSet("strict") {
		sc.Strict = c.Bool("strict")
	}
	if c.IsSet("follow-symlinks") {
		sc.FollowSymlinks = c.Bool("follow-symlinks")
	}
	if c.IsSet("skip-hidden") {
		sc.IncludeHidden = !c.Bool("skip-hidden")
	}
	sc.Exclude = append(append([]string(nil), sc.Exclude...), c.StringSlice("exclude")...)

	alg, err := digest.ParseAlgorithm(sc.Algorithm)
	if err != nil {
		return scan.Options{}, domain.ErrInvalidArgument.WithDetails("algorithm").WithCause(err)
	}
	if sc.Workers < 1 {
		return scan.Options{}, domain.ErrInvalidArgument.WithDetails("--jobs must be at least 1")
	}
	if sc.RateLimit < 0 {
		return scan.Options{}, domain.ErrInvalidArgument.WithDetails("--rate must not be negative")
	}
	if sc.BigFileBytes < 0 {
		return scan.Options{}, domain.ErrInvalidArgument.WithDetails("--big-file-bytes must not be negative")
	}
	excludes, err := config.CompileExcludes(sc.Exclude)
	if err != nil {
		return scan.Options{}, err
	}

	return scan.Options{
		Algorithm:      alg,
		Workers:        sc.Workers,
		RateLimit:      sc.RateLimit,
		BigFileBytes:   sc.BigFileBytes,
		FollowSymlinks: sc.FollowSymlinks,
		IncludeHidden:  sc.IncludeHidden,
		Strict:         sc.Strict,
		Exclude:        excludes,
		Now:            now,
	}, nil
}

func checksumAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return domain.ErrMissingArgument.WithDetails("checksum needs exactly one DIR")
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	opts, err := scanOptions(c, env.Config)
	if err != nil {
		return err
	}

	h := shutdown.NewHandler(shutdownTimeout)
	ctx, stop := h.Context(env.runContext(c.Context))
	defer stop()
	log := logger.L(ctx)
	h.OnShutdown(func(context.Context) error {
		log.Warn("interrupted, discarding partial snapshot", "signal", h.Signal())
		return nil
	})

	var progress *output.Progress
	if c.Bool("progress") {
		progress = output.NewProgress(c.App.ErrWriter, "hashing", 200*time.Millisecond)
		opts.Progress = progress.Add
	}

	snap, stats, err := scan.Build(ctx, c.Args().First(), opts)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		if sig := h.Signal(); sig != nil {
			return fmt.Errorf("checksum interrupted by %s: %w", sig, err)
		}
		return err
	}
	if stats.Errors > 0 {
		log.Warn("some files could not be read", "count", stats.Errors)
	}

	var reg *registry.Registry
	path := c.String("output")
	if path == "" {
		reg, path, err = registerSnapshot(env, snap)
		if err != nil {
			return err
		}
	}
	if err := snap.WriteFile(path); err != nil {
		return err
	}
	log.Info("snapshot written", "path", path, "files", stats.Files, "bytes", stats.Bytes)

	if f := c.String("metrics-file"); f != "" {
		if err := writeScanMetrics(f, snap, stats, reg); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(c.App.Writer, path)
	return err
}

// registerSnapshot registers the snapshot root if it is new and returns
// the sum file path for it. An existing sum file is never replaced.
func registerSnapshot(env *Env, snap *sumfile.Snapshot) (*registry.Registry, string, error) {
	reg, err := env.openRegistry()
	if err != nil {
		return nil, "", err
	}
	if !reg.Contains(snap.Root()) {
		token, err := reg.Add(snap.Root())
		if err != nil {
			return nil, "", err
		}
		if err := reg.Commit(); err != nil {
			return nil, "", err
		}
		env.Log.Info("root registered", "root", snap.Root(), "token", token)
	}
	path, err := reg.SnapshotPath(snap.Root(), snap.Time())
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Lstat(path); err == nil {
		return nil, "", domain.ErrStorage.WithDetailsf("%s already exists", path)
	}
	return reg, path, nil
}

func writeScanMetrics(path string, snap *sumfile.Snapshot, stats scan.Stats, reg *registry.Registry) error {
	m := metric.NewRegistry()
	m.ObserveScan(snap.Root(), stats, snap.Time())
	if reg != nil {
		if err := m.Register(metric.NewCollector(reg)); err != nil {
			return err
		}
	}
	if err := m.WriteTextfile(path); err != nil {
		return domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	return nil
}
