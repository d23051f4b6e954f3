package domain

import "errors"

// Error kinds. Every package-level sentinel and typed error in the domain
// unwraps to exactly one of these, which is what callers should match on.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Error is a domain error with its own message that still matches its kind
// under errors.Is.
type Error struct {
	kind error
	msg  string
}

func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Kind returns the error kind of err, or nil for infrastructure errors.
func Kind(err error) error {
	for _, k := range []error{
		ErrNotFound, ErrConflict, ErrSlotUnavailable, ErrInvalidTransition,
		ErrInsufficientStock, ErrInvalidStatus, ErrUnauthorized,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
