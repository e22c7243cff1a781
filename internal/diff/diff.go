// Package diff compares two zakopane snapshots.
//
// Only paths recorded in both snapshots are compared. A path present in
// just one of them is a file that was added or deleted between captures;
// those are deliberately left out of every result here. Do not "fix" this
// by reporting them: the tool answers "which files changed content", and
// additions and deletions are a different question.
package diff

import (
	"sort"

	"github.com/zakopane-go/zakopane/internal/sumfile"
	"github.com/zakopane-go/zakopane/pkg/digest"
)

// Change is one path whose digest differs between two snapshots.
type Change struct {
	Path   string `json:"path" yaml:"path"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

// Diff returns, sorted ascending, every path recorded in both a and b with
// different digests. The result does not depend on which snapshot is older.
func Diff(a, b *sumfile.Snapshot) []string {
	changes := Changes(a, b)
	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = c.Path
	}
	return paths
}

// Changes is Diff with the digests on each side: Before from a, After from b.
func Changes(a, b *sumfile.Snapshot) []Change {
	changes := make([]Change, 0)
	a.Range(func(path string, before digest.Digest) bool {
		after, err := b.Get(path)
		if err != nil {
			return true
		}
		if !before.Equal(after) {
			changes = append(changes, Change{
				Path:   path,
				Before: before.Value(),
				After:  after.Value(),
			})
		}
		return true
	})

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}
