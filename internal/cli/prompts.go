package cli

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"

	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// out writes formatted text, ignoring write errors on the terminal.
func out(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln writes a line of text, ignoring write errors on the terminal.
func outln(w io.Writer, args ...interface{}) {
	_, _ = fmt.Fprintln(w, args...)
}

// promptPassphrase prompts for a passphrase with hidden input. An interrupted
// prompt (ctrl-d, closed stdin) is reported as a decline, not a failure.
func promptPassphrase(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", glypherr.WithSuggestion(
			glypherr.ErrInvalidInput,
			"stdin is not a terminal; passphrase prompts need an interactive session",
		)
	}

	out(os.Stderr, "%s", prompt)
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	outln(os.Stderr) // newline after hidden input

	if err != nil {
		return "", glypherr.Wrap(glypherr.ErrSigningRejected, "passphrase prompt aborted")
	}
	return string(passphrase), nil
}

// promptNewPassphrase prompts for a new passphrase with confirmation.
func promptNewPassphrase() (string, error) {
	passphrase, err := promptPassphrase("Enter keyfile passphrase: ")
	if err != nil {
		return "", err
	}

	if len(passphrase) < 8 {
		return "", glypherr.WithSuggestion(
			glypherr.ErrInvalidInput,
			"passphrase must be at least 8 characters",
		)
	}

	confirm, err := promptPassphrase("Confirm passphrase: ")
	if err != nil {
		return "", err
	}

	if passphrase != confirm {
		return "", glypherr.WithSuggestion(
			glypherr.ErrInvalidInput,
			"passphrases do not match",
		)
	}

	return passphrase, nil
}
