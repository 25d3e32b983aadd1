package output

import (
	"fmt"
	"os"
)

// Warn prints a warning to stderr so it never pollutes piped output.
func Warn(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, "⚠️  "+msg)
}

// Warnf prints a formatted warning to stderr.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}
