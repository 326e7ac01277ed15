package output

import (
	"fmt"
	"os"
)

// Infof prints an informational notice to stdout.
func Infof(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stdout, "ℹ️  "+format+"\n", args...)
}

// Warn prints a warning to stderr, keeping stdout clean for JSON output.
func Warn(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, "⚠️  "+msg)
}
