package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zakopane-go/zakopane/internal/core/domain"
	"github.com/zakopane-go/zakopane/internal/diff"
	"github.com/zakopane-go/zakopane/internal/telemetry/logger"
	"github.com/zakopane-go/zakopane/pkg/digest"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyScan(&cfg.Scan); err != nil {
		return err
	}
	return verifyCompare(&cfg.Compare)
}

func verifyCompare(cfg *CompareSection) error {
	if cfg.DefaultPolicy == "" {
		return nil
	}
	if _, err := diff.ParsePolicy(cfg.DefaultPolicy); err != nil {
		return domain.ErrInvalidArgument.WithDetailsf("compare.default_policy %q", cfg.DefaultPolicy).WithCause(err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return domain.ErrInvalidArgument.WithDetailsf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		return domain.ErrInvalidArgument.WithDetailsf("log.format %q is not text or json", cfg.Format)
	}
	return nil
}

func verifyScan(cfg *ScanSection) error {
	if _, err := digest.ParseAlgorithm(cfg.Algorithm); err != nil {
		return domain.ErrInvalidArgument.WithDetailsf("scan.algorithm %q", cfg.Algorithm).WithCause(err)
	}
	if cfg.Workers < 1 {
		return domain.ErrInvalidArgument.WithDetails("scan.workers must be at least 1")
	}
	if cfg.RateLimit < 0 {
		return domain.ErrInvalidArgument.WithDetails("scan.rate_limit must not be negative")
	}
	if cfg.BigFileBytes < 0 {
		return domain.ErrInvalidArgument.WithDetails("scan.big_file_bytes must not be negative")
	}
	if _, err := CompileExcludes(cfg.Exclude); err != nil {
		return err
	}
	return nil
}

// CompileExcludes compiles scan.exclude patterns.
func CompileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("scan.exclude %q", p)).WithCause(err)
		}
		out = append(out, re)
	}
	return out, nil
}
