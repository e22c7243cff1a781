// Package sumfile reads and writes zakopane sum files.
//
// A sum file is a metadata header followed by one record per file:
//
//	====================================================
//	Root: /home/kalvin
//	When: 1563200000.123456
//	Algorithm: sha512
//	====================================================
//	/home/kalvin/notes.txt 3a7bd3e2360a3d...
//
// Records are decoded positionally from the end of the line: the last
// HashLen characters are the digest, the separator precedes them, and the
// rest is the path. Paths may therefore contain spaces.
//
// A Snapshot is the parsed, immutable form of one sum file. Open and Load
// only read existing files; fresh snapshots are assembled with New (see
// package scan) and serialized with WriteTo or WriteFile.
package sumfile
