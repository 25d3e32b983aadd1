// Package errors provides structured error handling for Glyph.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes used by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitRejected = 3 // User or network declined the operation
	ExitNotFound = 4 // Resource not found
	ExitSession  = 5 // Session not in a usable state
)

// GlyphError is the structured error type for Glyph.
type GlyphError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *GlyphError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *GlyphError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for GlyphError.
func (e *GlyphError) Is(target error) bool {
	var t *GlyphError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &GlyphError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &GlyphError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// Session errors.
	ErrUnknownProvider = &GlyphError{
		Code:     "UNKNOWN_PROVIDER",
		Message:  "signing provider is not registered",
		ExitCode: ExitInput,
	}

	ErrNoProviderSelected = &GlyphError{
		Code:     "NO_PROVIDER_SELECTED",
		Message:  "no signing provider selected",
		ExitCode: ExitSession,
	}

	ErrConnectionFailed = &GlyphError{
		Code:     "CONNECTION_FAILED",
		Message:  "connecting to signing provider failed",
		ExitCode: ExitGeneral,
	}

	ErrNotConnected = &GlyphError{
		Code:     "NOT_CONNECTED",
		Message:  "wallet session is not connected",
		ExitCode: ExitSession,
	}

	ErrSigningRejected = &GlyphError{
		Code:     "SIGNING_REJECTED",
		Message:  "signing request was declined by the provider",
		ExitCode: ExitRejected,
	}

	// Ledger errors.
	ErrUnsignedPayload = &GlyphError{
		Code:     "UNSIGNED_PAYLOAD",
		Message:  "no connected identity available to sign the payload",
		ExitCode: ExitSession,
	}

	ErrSubmissionRejected = &GlyphError{
		Code:     "SUBMISSION_REJECTED",
		Message:  "ledger rejected the transaction submission",
		ExitCode: ExitRejected,
	}

	ErrTransport = &GlyphError{
		Code:     "TRANSPORT_ERROR",
		Message:  "ledger network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrNotFound = &GlyphError{
		Code:     "NOT_FOUND",
		Message:  "transaction not found on the ledger",
		ExitCode: ExitNotFound,
	}

	// Keystore errors.
	ErrKeystoreNotFound = &GlyphError{
		Code:     "KEYSTORE_NOT_FOUND",
		Message:  "keyfile not found",
		ExitCode: ExitNotFound,
	}

	ErrKeystoreExists = &GlyphError{
		Code:     "KEYSTORE_EXISTS",
		Message:  "keyfile already exists",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &GlyphError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong passphrase or corrupted file",
		ExitCode: ExitRejected,
	}

	// Config errors.
	ErrConfigNotFound = &GlyphError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &GlyphError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrCacheNotFound = &GlyphError{
		Code:     "CACHE_NOT_FOUND",
		Message:  "no cached data available",
		ExitCode: ExitNotFound,
	}

	ErrDataTooLarge = &GlyphError{
		Code:     "DATA_TOO_LARGE",
		Message:  "payload exceeds maximum size",
		ExitCode: ExitInput,
	}
)

// New creates a new GlyphError with the given code and message.
func New(code, message string) *GlyphError {
	return &GlyphError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ge *GlyphError
	if errors.As(err, &ge) {
		return &GlyphError{
			Code:       ge.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ge.Message),
			Details:    ge.Details,
			Suggestion: ge.Suggestion,
			Cause:      err,
			ExitCode:   ge.ExitCode,
		}
	}

	return &GlyphError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ge *GlyphError
	if errors.As(err, &ge) {
		return &GlyphError{
			Code:       ge.Code,
			Message:    ge.Message,
			Details:    details,
			Suggestion: ge.Suggestion,
			Cause:      ge.Cause,
			ExitCode:   ge.ExitCode,
		}
	}

	return &GlyphError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ge *GlyphError
	if errors.As(err, &ge) {
		return &GlyphError{
			Code:       ge.Code,
			Message:    ge.Message,
			Details:    ge.Details,
			Suggestion: suggestion,
			Cause:      ge.Cause,
			ExitCode:   ge.ExitCode,
		}
	}

	return &GlyphError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ge *GlyphError
	if errors.As(err, &ge) {
		return ge.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ge *GlyphError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
