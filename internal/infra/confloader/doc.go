// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults supplied as a map
//  2. A YAML configuration file
//  3. Environment variables (ZAKOPANE_SECTION_KEY)
//  4. Command-line flags supplied as a map
//
// Each layer is merged over the previous one and the result is unmarshaled
// into a struct tagged with `koanf`.
package confloader
