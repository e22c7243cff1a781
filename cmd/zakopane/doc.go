// Package main provides the entry point for zakopane.
//
// zakopane hashes every regular file under a directory into a sum file and
// lists the files whose content differs between two sum files:
//
//   - checksum: walk a directory and record a snapshot
//   - compare: print paths whose digest changed
//   - registry: inspect the directory-to-token registry
//   - config: show the effective configuration and directories
//
// Usage:
//
//	zakopane checksum -j 4 ~/photos
//	zakopane compare old.sum new.sum
//	zakopane compare --root ~/photos --format json
package main
