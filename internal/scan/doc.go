// Package scan builds snapshots by walking a directory tree and hashing
// every regular file in it.
//
// The walk is single-threaded; hashing runs on a bounded pool of workers
// and can be throttled to a byte rate. Symlinks are not followed unless
// asked, and even then only links to regular files are hashed. Files that
// cannot be read are skipped with a warning, or abort the scan in strict
// mode.
package scan
