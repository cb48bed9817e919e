package domain

import "errors"

// Error kinds. Match with errors.Is.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
)

// Error is a classified failure carrying a message fit for the caller
type Error struct {
	kind error
	msg  string
}

// NewError returns an Error of the given kind
func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

var (
	ErrInvalidPIN        = NewError(ErrUnauthorized, "Invalid PIN")
	ErrInvalidCurrentPIN = NewError(ErrUnauthorized, "Invalid current PIN")
	ErrMalformedPIN      = NewError(ErrInvalidArgument, "New PIN must be exactly 4 digits")
	ErrPINInUse          = NewError(ErrConflict, "PIN already in use")
	ErrInvalidLabel      = NewError(ErrInvalidArgument, "Label must be between 1 and 20 characters")
	ErrEmptyContent      = NewError(ErrInvalidArgument, "Content is required")
	ErrEntryNotFound     = NewError(ErrNotFound, "Entry not found")
)
