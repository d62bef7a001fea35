// Package apperr defines the typed error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and retry decisions.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindTransient  Kind = "transient"
	KindInternal   Kind = "internal"
)

// Error is a typed application error. Code is stable and machine-readable.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so wrapped copies of a sentinel compare equal to it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the whole operation may be retried.
func (e *Error) Retryable() bool { return e.Kind == KindTransient }

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of sentinel with a more specific message.
func WithMessage(sentinel *Error, msg string) *Error {
	cp := *sentinel
	cp.Message = msg
	return &cp
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Validation(code, msg string) *Error { return New(KindValidation, code, msg) }

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal error", Err: err}
}

func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Code: "transient", Message: "temporary store failure, retry the operation", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "internal"
}

var (
	ErrUnitNotFound     = New(KindNotFound, "unit_not_found", "Unit not found")
	ErrTenantNotFound   = New(KindNotFound, "tenant_not_found", "Tenant not found")
	ErrPaymentNotFound  = New(KindNotFound, "payment_not_found", "Payment not found")
	ErrLeaseNotFound    = New(KindNotFound, "lease_not_found", "Lease not found")
	ErrHoldNotFound     = New(KindNotFound, "hold_not_found", "Hold not found")
	ErrPropertyNotFound = New(KindNotFound, "property_not_found", "Property not found")
	ErrRequestNotFound  = New(KindNotFound, "maintenance_request_not_found", "Maintenance request not found")

	ErrUnitNotAvailable      = New(KindConflict, "unit_not_available", "Unit is not available")
	ErrUnitUnavailable       = New(KindConflict, "unit_unavailable", "Unit is unavailable for a new lease")
	ErrAlreadyHeld           = New(KindConflict, "already_held", "Unit is already held by another party")
	ErrHoldNotOwned          = New(KindConflict, "hold_not_owned", "Hold belongs to another requester")
	ErrPaymentAlreadyPosted  = New(KindConflict, "payment_already_posted", "Payment has already been posted")
	ErrDuplicateActiveLease  = New(KindConflict, "duplicate_active_lease", "Unit already has an active lease")
	ErrLeaseNotActive        = New(KindConflict, "lease_not_active", "Lease is not active")
	ErrInvalidTransition     = New(KindConflict, "invalid_transition", "Status transition not allowed")
	ErrUnitHasActiveLease    = New(KindConflict, "unit_has_active_lease", "Unit has an active lease")
	ErrUniqueViolation       = New(KindConflict, "unique_violation", "Conflicting record already exists")

	ErrInvalidDateRange = Validation("invalid_date_range", "start_date must be before end_date")
	ErrInvalidAmount    = Validation("invalid_amount", "amount must be greater than zero")
	ErrInvalidMethod    = Validation("invalid_method", "method must be one of cash, card, online, check")
	ErrInvalidMinutes   = Validation("invalid_minutes", "minutes must be between 1 and 1440")
	ErrInvalidDraft     = Validation("invalid_draft", "draft lease does not match the unit and tenant")
	ErrInvalidRequest   = Validation("invalid_request", "request failed validation")
)
