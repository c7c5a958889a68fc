package core

import "github.com/pkg/errors"

// Error kinds. Every domain error unwraps to exactly one of them.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicate     = errors.New("duplicate")
	ErrStateConflict = errors.New("state conflict")

	ErrMissingField = NewError(ErrInvalidInput, "missing required field")
)

// Error is a domain error of a given kind.
type Error struct {
	Kind error
	msg  string
}

func NewError(kind error, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

func (err *Error) Error() string { return err.msg }

func (err *Error) Unwrap() error { return err.Kind }

// KindOf returns the kind `err` belongs to, or nil if it is not a domain error.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrNotAuthorized, ErrInvalidInput, ErrDuplicate, ErrStateConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// FieldErrors maps each invalid field to its error message.
func (err ValidationError) FieldErrors() map[string]string {
	fldErrs := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		fldErrs[fErr.Field] = fErr.Error
	}
	return fldErrs
}
