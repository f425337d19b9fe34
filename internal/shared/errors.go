// Package shared contains common error types and utilities.
package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Common errors shared by the database helpers and the call wrappers.
var (
	// ErrUnavailable indicates that the database could not be opened or reached
	ErrUnavailable = errors.New("database unavailable")

	// ErrQuery indicates that a statement failed to execute
	ErrQuery = errors.New("query failed")

	// ErrConstraint indicates that a statement violated a constraint
	ErrConstraint = errors.New("constraint violated")

	// ErrBusy indicates that the database file was locked by another writer
	ErrBusy = errors.New("database busy")

	// ErrNotFound indicates that a requested row was not found
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates that input validation failed
	ErrValidation = errors.New("validation failed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// Kind represents a category of error for easier classification and handling.
type Kind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindUnavailable represents resource acquisition failures
	KindUnavailable
	// KindQuery represents statement execution failures
	KindQuery
	// KindConstraint represents constraint violations
	KindConstraint
	// KindBusy represents lock contention on the database file
	KindBusy
	// KindNotFound represents missing rows
	KindNotFound
	// KindValidation represents input validation errors
	KindValidation
	// KindTimeout represents timeout errors
	KindTimeout
	// KindCanceled represents context cancellation
	KindCanceled
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "Unavailable"
	case KindQuery:
		return "Query"
	case KindConstraint:
		return "Constraint"
	case KindBusy:
		return "Busy"
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindTimeout:
		return "Timeout"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

var kindToSentinel = map[Kind]error{
	KindUnavailable: ErrUnavailable,
	KindQuery:       ErrQuery,
	KindConstraint:  ErrConstraint,
	KindBusy:        ErrBusy,
	KindNotFound:    ErrNotFound,
	KindValidation:  ErrValidation,
	KindTimeout:     ErrTimeout,
}

// kindPriorities defines the deterministic order for error classification.
// More specific kinds come before ErrQuery, which is the catch-all for
// execution failures.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindCanceled, nil},
	{KindTimeout, ErrTimeout},
	{KindUnavailable, ErrUnavailable},
	{KindBusy, ErrBusy},
	{KindConstraint, ErrConstraint},
	{KindNotFound, ErrNotFound},
	{KindValidation, ErrValidation},
	{KindQuery, ErrQuery},
}

// KindOf returns the Kind of the given error by checking against known sentinel errors.
// It traverses the error chain using a deterministic priority order:
//
//  1. KindCanceled (context.Canceled)
//  2. KindTimeout (context.DeadlineExceeded, ErrTimeout, net timeout errors)
//  3. KindUnavailable, KindBusy, KindConstraint, KindNotFound, KindValidation
//  4. KindQuery (lowest)
//
// Returns KindUnknown for unrecognized errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, priority := range kindPriorities {
		switch priority.kind {
		case KindCanceled:
			if IsCanceled(err) {
				return KindCanceled
			}
		case KindTimeout:
			if IsTimeout(err) {
				return KindTimeout
			}
		default:
			if errors.Is(err, priority.err) {
				return priority.kind
			}
		}
	}

	return KindUnknown
}

// HasKind reports whether the given error has the specified kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// SentinelOf returns the sentinel error for the given Kind.
// For KindUnknown and KindCanceled, it returns nil.
func SentinelOf(kind Kind) error {
	return kindToSentinel[kind]
}

// MarkKind wraps an error with the sentinel error for the given kind,
// preserving the original error through error wrapping.
// Both KindOf(MarkKind(err, kind)) == kind and errors.Is(MarkKind(err, kind), err) hold.
// If err is nil, returns the sentinel error for the kind (or nil for unsupported kinds).
// Marking an error with a kind it already has returns the error unchanged.
//
// Example:
//
//	if errors.Is(err, sql.ErrNoRows) {
//	    return shared.MarkKind(err, shared.KindNotFound)
//	}
func MarkKind(err error, kind Kind) error {
	if err == nil {
		return SentinelOf(kind)
	}

	sentinel := SentinelOf(kind)
	if sentinel == nil {
		return err
	}

	if KindOf(err) == kind {
		return err
	}

	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap wraps an error with additional context.
// If err is nil, Wrap returns nil. If context is empty, returns the original error.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Validation returns an ErrValidation error with the given message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsCanceled reports whether the error indicates a canceled context.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled)
}

// IsTimeout reports whether the error indicates a timeout.
// It checks for context.DeadlineExceeded, net.Error timeouts, and our ErrTimeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// IsUnavailable reports whether the database could not be acquired.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsBusy reports whether the error indicates lock contention.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsConstraint reports whether the error indicates a constraint violation.
func IsConstraint(err error) bool {
	return errors.Is(err, ErrConstraint)
}

// IsNotFound reports whether the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether the error indicates input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
