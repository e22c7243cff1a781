// Package command defines the zakopane command line.
//
// It uses urfave/cli/v2. The root Before hook loads configuration and
// sets up logging; every command then reads them through envFrom. Results
// are written to App.Writer and diagnostics to App.ErrWriter so tests can
// capture both.
package command
