// ABOUTME: Error taxonomy for the public API
// ABOUTME: Sentinel codes plus a typed error carrying the operation and cause
package cubeb

import "errors"

var (
	// ErrError is the unclassified failure: backend or platform failure,
	// resource exhaustion or an invalid call sequence.
	ErrError = errors.New("cubeb: error")

	// ErrInvalidFormat reports stream parameters the selected backend cannot honor.
	ErrInvalidFormat = errors.New("cubeb: invalid format")
)

// Error is returned by every failing operation. Code is ErrError or
// ErrInvalidFormat; errors.Is matches both Code and the wrapped cause.
type Error struct {
	Op   string
	Code error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Code.Error()
	}
	return e.Op + ": " + e.Code.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

func newError(op string, code, err error) error {
	return &Error{Op: op, Code: code, Err: err}
}
