// Package output renders command results as text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how command results are rendered.
type Format string

// Output formats. FormatAuto resolves to text on a terminal and JSON
// everywhere else, so piped output stays machine-readable.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// Formatter renders values to a writer in a fixed format.
type Formatter struct {
	format Format
	writer io.Writer
}

// NewFormatter creates a new formatter with the specified format.
func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{format: format, writer: w}
}

// Format returns the resolved output format.
func (f *Formatter) Format() Format { return f.format }

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer { return f.writer }

// IsJSON reports whether results render as JSON.
func (f *Formatter) IsJSON() bool { return f.format == FormatJSON }

// Print renders a value. JSON output is indented and newline-terminated.
// Text output uses the value's String method when it has one.
func (f *Formatter) Print(v any) error {
	if f.format == FormatJSON {
		enc := json.NewEncoder(f.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	var err error
	switch val := v.(type) {
	case string:
		_, err = fmt.Fprintln(f.writer, val)
	case fmt.Stringer:
		_, err = fmt.Fprintln(f.writer, val.String())
	default:
		_, err = fmt.Fprintf(f.writer, "%v\n", val)
	}
	return err
}

// DetectFormat resolves FormatAuto against the destination writer. An
// explicit text or json choice always wins.
func DetectFormat(w io.Writer, explicit Format) Format {
	if explicit != FormatAuto {
		return explicit
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: Fd fits in int on supported platforms
		return FormatText
	}
	return FormatJSON
}

// ParseFormat maps a flag or config value to a Format. Unrecognized
// values fall back to auto-detection.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatAuto
	}
}
