// Package registry maps monitored root directories to the identifiers that
// name their sum files.
//
// The registry is a JSON object persisted in the data directory:
//
//	{
//	  "/home/kalvin": "01hq3v6m2xk7c0z9r8j5n4t1ab"
//	}
//
// Keys and values are both unique. Mutations stay in memory until Commit
// rewrites the whole document, so a batch of Add calls costs one write.
//
// There is no cross-process locking. Two processes that Open, Add and
// Commit concurrently can lose each other's entries; callers that need
// that guarantee must serialize around Open through Commit themselves.
package registry
