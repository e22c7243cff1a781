// Package output renders command results for zakopane.
//
// Results go to stdout in one of four formats:
//
//   - text: one item per line, the default for compare
//   - table: aligned columns via text/tabwriter
//   - json: indented encoding/json
//   - yaml: gopkg.in/yaml.v3
//
// Progress is drawn on stderr so it never mixes with results.
package output
