// Package buildinfo exposes version information for zakopane.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/zakopane-go/zakopane/internal/infra/buildinfo.Version=v0.3.0"
//
// When they are not set, the module version and VCS stamp recorded by the
// Go toolchain are used instead.
package buildinfo
