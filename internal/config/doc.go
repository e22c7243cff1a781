// Package config defines the zakopane configuration structure, its
// defaults, validation and the XDG directories it resolves against.
package config
