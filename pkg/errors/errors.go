// Package errors provides structured error handling for Shade.
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

// Exit codes.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitRejected = 3 // User declined an approval prompt
	ExitNotFound = 4 // Resource not found
	ExitState    = 5 // Operation not valid in the current session state
)

// ShadeError is the structured error type for Shade.
type ShadeError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *ShadeError) Error() string {
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

func (e *ShadeError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ShadeError.
func (e *ShadeError) Is(target error) bool {
	var t *ShadeError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &ShadeError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	// Provider-specific errors.
	ErrProviderNotFound = &ShadeError{
		Code:       "PROVIDER_NOT_FOUND",
		Message:    "no wallet provider detected",
		Suggestion: "install the Lace wallet extension from https://www.lace.io/midnight and enable its provider bridge",
		ExitCode:   ExitNotFound,
	}

	ErrCapabilityUnavailable = &ShadeError{
		Code:     "CAPABILITY_UNAVAILABLE",
		Message:  "capability not available on this provider",
		ExitCode: ExitState,
	}

	ErrUserRejected = &ShadeError{
		Code:       "USER_REJECTED",
		Message:    "request rejected by user",
		Suggestion: "approve the request in your wallet to proceed",
		ExitCode:   ExitRejected,
	}

	// Session-specific errors.
	ErrAlreadyConnecting = &ShadeError{
		Code:     "ALREADY_CONNECTING",
		Message:  "a connection attempt is already in flight",
		ExitCode: ExitState,
	}

	ErrNotConnected = &ShadeError{
		Code:       "NOT_CONNECTED",
		Message:    "wallet session is not connected",
		Suggestion: "run connect before issuing wallet operations",
		ExitCode:   ExitState,
	}

	// Transaction-specific errors.
	ErrSigningUnavailable = &ShadeError{
		Code:     "SIGNING_UNAVAILABLE",
		Message:  "provider does not support transaction signing",
		ExitCode: ExitState,
	}

	ErrSubmissionFailed = &ShadeError{
		Code:       "SUBMISSION_FAILED",
		Message:    "transaction submission failed",
		Suggestion: "check network connectivity and retry",
		ExitCode:   ExitGeneral,
	}

	ErrConfirmationTimeout = &ShadeError{
		Code:       "CONFIRMATION_TIMEOUT",
		Message:    "transaction confirmation timed out",
		Suggestion: "the transaction may still settle; re-check its status later",
		ExitCode:   ExitGeneral,
	}

	ErrTxRejected = &ShadeError{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected by network",
		ExitCode: ExitGeneral,
	}

	// Facade-specific errors.
	ErrInvalidParameters = &ShadeError{
		Code:     "INVALID_PARAMETERS",
		Message:  "invalid operation parameters",
		ExitCode: ExitInput,
	}

	ErrUnknownOperation = &ShadeError{
		Code:     "UNKNOWN_OPERATION",
		Message:  "unknown contract operation",
		ExitCode: ExitInput,
	}

	ErrUnknownContract = &ShadeError{
		Code:     "UNKNOWN_CONTRACT",
		Message:  "contract address not present in the registry",
		ExitCode: ExitInput,
	}

	// Infrastructure errors.
	ErrNetworkError = &ShadeError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrConfigNotFound = &ShadeError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &ShadeError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrKeystoreNotFound = &ShadeError{
		Code:     "KEYSTORE_NOT_FOUND",
		Message:  "keystore file not found",
		ExitCode: ExitNotFound,
	}

	ErrKeystoreDecryption = &ShadeError{
		Code:     "KEYSTORE_DECRYPTION_FAILED",
		Message:  "keystore decryption failed - wrong passphrase or corrupted file",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &ShadeError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}
)

// New creates a new ShadeError with the given code and message.
func New(code, message string) *ShadeError {
	return &ShadeError{
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

	var se *ShadeError
	if errors.As(err, &se) {
		return &ShadeError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &ShadeError{
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

	var se *ShadeError
	if errors.As(err, &se) {
		return &ShadeError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &ShadeError{
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

	var se *ShadeError
	if errors.As(err, &se) {
		return &ShadeError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &ShadeError{
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

	var se *ShadeError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}
