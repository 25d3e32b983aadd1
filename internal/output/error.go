package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	if format == FormatJSON {
		return formatErrorJSON(w, err)
	}
	return formatErrorText(w, err)
}

// formatErrorJSON outputs error in JSON format.
func formatErrorJSON(w io.Writer, err error) error {
	output := ErrorOutput{
		Error: ErrorDetail{
			Code:     "GENERAL_ERROR",
			Message:  err.Error(),
			ExitCode: glypherr.ExitGeneral,
		},
	}

	var ge *glypherr.GlyphError
	if errors.As(err, &ge) {
		output.Error = ErrorDetail{
			Code:       ge.Code,
			Message:    ge.Message,
			Details:    ge.Details,
			Suggestion: ge.Suggestion,
			ExitCode:   ge.ExitCode,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// formatErrorText outputs error in text format. A signing decline renders as
// a plain refusal, not a failure, so "you said no" and "something went wrong"
// stay visually distinct.
func formatErrorText(w io.Writer, err error) error {
	var sb strings.Builder

	prefix := "Error"
	if errors.Is(err, glypherr.ErrSigningRejected) {
		prefix = "Declined"
	}

	var ge *glypherr.GlyphError
	if errors.As(err, &ge) {
		sb.WriteString(fmt.Sprintf("%s: %s\n", prefix, ge.Message))

		if len(ge.Details) > 0 {
			sb.WriteString("\nDetails:\n")
			for k, v := range ge.Details {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
			}
		}

		if ge.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", ge.Suggestion))
		}
	} else {
		sb.WriteString(fmt.Sprintf("%s: %s\n", prefix, err.Error()))
	}

	_, writeErr := w.Write([]byte(sb.String()))
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		output := map[string]string{"status": "success", "message": message}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
