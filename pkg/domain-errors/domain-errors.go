package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"

	// Issuance pipeline codes. CodeIneligible carries the missing-artifact
	// detail on the error value so operators can distinguish "not finished yet"
	// from infrastructure failures.
	CodeIneligible     Code = "ineligible"
	CodeContentPublish Code = "content_publish_failed"

	// Ledger codes. Transient failures may be retried by callers; reverted,
	// unauthorized, and insufficient-funds are terminal and must never be
	// retried. An unfunded signing wallet stays unfunded until an operator
	// tops it up.
	CodeLedgerTransient    Code = "ledger_transient"
	CodeLedgerReverted     Code = "ledger_reverted"
	CodeLedgerUnauthorized Code = "ledger_unauthorized"
	CodeLedgerFunds        Code = "ledger_insufficient_funds"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error

	// Details carries structured, user-presentable context (for example the
	// missing artifact titles on an ineligibility error).
	Details []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewWithDetails creates a domain error carrying structured detail strings.
func NewWithDetails(code Code, msg string, details []string) error {
	return &Error{Code: code, Message: msg, Details: details}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err, Details: existing.Details}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Details extracts structured detail strings from a domain error, if any.
func Details(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// IsRetryable reports whether the error represents a transient failure that a
// caller may retry. Reverted ledger transactions are terminal by definition.
func IsRetryable(err error) bool {
	return HasCode(err, CodeLedgerTransient) || HasCode(err, CodeTimeout)
}
