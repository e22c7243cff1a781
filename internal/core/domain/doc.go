// Package domain defines the core domain errors for zakopane.
//
// Every failure the core can report maps to one of these kinds:
//
//   - Malformed input: broken header, record, or duplicate key
//   - Not found: missing path or unregistered root
//   - Conflict: registry key or identifier already taken
//   - Storage: underlying filesystem errors (wrapped as Cause)
//   - Not implemented: operations that have no implementation yet
//
// Errors compare by code, so errors.Is(err, ErrMalformedRecord) holds for
// any copy produced by WithDetails or WithCause.
package domain
