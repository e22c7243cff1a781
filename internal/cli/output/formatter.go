package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/zakopane-go/zakopane/internal/core/domain"
)

// Format represents the output format.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatTable, FormatJSON, FormatYAML}
}

// ParseFormat resolves a --format value.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", domain.ErrInvalidArgument.WithDetailsf("unknown output format %q", s)
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Liner is implemented by results with a natural one-item-per-line form.
type Liner interface {
	Lines() []string
}

// TextFormatter prints one item per line. Values without a line form
// are rendered as a table.
type TextFormatter struct{}

// Format writes data as plain lines.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	var lines []string
	switch v := data.(type) {
	case nil:
		return nil
	case Liner:
		lines = v.Lines()
	case []string:
		lines = v
	case string:
		lines = []string{v}
	case fmt.Stringer:
		lines = []string{v.String()}
	default:
		return (&TableFormatter{}).Format(w, data)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
