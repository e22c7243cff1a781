package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zakopane-go/zakopane/internal/core/domain"
)

const (
	// SumExtension ends every sum file name.
	SumExtension = ".sum"

	stampLayout = "20060102T150405.000Z"
)

// SumPrefix returns the file name prefix shared by every sum file of root.
func (r *Registry) SumPrefix(root string) (string, error) {
	token, err := r.Lookup(root)
	if err != nil {
		return "", err
	}
	return token + "-", nil
}

// SnapshotPath names the sum file for root captured at t:
// <sums dir>/<token>-<UTC timestamp to the millisecond>.sum.
func (r *Registry) SnapshotPath(root string, t time.Time) (string, error) {
	prefix, err := r.SumPrefix(root)
	if err != nil {
		return "", err
	}
	name := prefix + t.UTC().Format(stampLayout) + SumExtension
	return filepath.Join(r.sumsDir, name), nil
}

// Snapshots lists the sum files recorded for root, oldest first by name.
func (r *Registry) Snapshots(root string) ([]string, error) {
	prefix, err := r.SumPrefix(root)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.sumsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.ErrStorage.WithDetails(r.sumsDir).WithCause(err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, SumExtension) {
			continue
		}
		paths = append(paths, filepath.Join(r.sumsDir, name))
	}
	sort.Strings(paths)
	return paths, nil
}
