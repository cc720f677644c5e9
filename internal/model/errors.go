package model

import "errors"

// Error kinds. Every domain error below matches exactly one of these via errors.Is,
// which lets the transport layer map status codes without listing each sentinel.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// Message returns the human-readable message of the domain error wrapped in err.
// ok is false when err does not carry one.
func Message(err error) (msg string, ok bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg, true
	}
	return "", false
}
