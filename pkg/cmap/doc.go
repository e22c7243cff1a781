// Package cmap provides a string-keyed map that is safe for concurrent use.
//
// Keys are spread over a power-of-two number of shards, each guarded by its
// own RWMutex, so hashing workers inserting unrelated paths rarely wait on
// one another.
//
// Usage:
//
//	m := cmap.New[digest.Digest]()
//	m.Set(path, d)
//	records := m.Clone()
package cmap
