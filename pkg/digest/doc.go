// Package digest provides the fixed-length content digests recorded in
// zakopane sum files.
//
// A deployment picks one Algorithm and every sum file it produces uses it.
// The hex length of a digest is derived from the hash output size, so the
// record codec never hardcodes it:
//
//   - sha512:      64-byte output, 128 hex characters (default)
//   - blake2b-512: 64-byte output, 128 hex characters
//
// Digests are lowercase hexadecimal. Files are streamed through the hash
// rather than read whole, and a failed read never yields a digest.
package digest
