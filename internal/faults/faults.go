// Package faults defines the user-facing faults returned at the API
// boundary. A fault carries a stable numeric code and a short label that
// remote callers switch on, plus a human readable message.
package faults

import (
	"errors"
	"fmt"
)

// Fault is a typed, remote-visible error.
type Fault struct {
	Code    int    `json:"faultCode"`
	Label   string `json:"faultLabel"`
	Message string `json:"faultString"`
	Cause   error  `json:"-"`
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", f.Label, f.Code, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s (%d): %s", f.Label, f.Code, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// Is matches any fault with the same code, so errors.Is(err, ErrInvalidToken)
// holds for every invalid token fault regardless of message or cause.
func (f *Fault) Is(target error) bool {
	var t *Fault
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == f.Code
}

const (
	InvalidTokenCode    = 11000
	InvalidTokenLabel   = "invalidToken"
	InvalidTokenMessage = "Invalid token"
)

// ErrInvalidToken is the comparison target for invalid token faults.
var ErrInvalidToken = InvalidToken()

// InvalidToken reports that an activation key or token could not be
// resolved or created.
func InvalidToken() *Fault {
	return &Fault{Code: InvalidTokenCode, Label: InvalidTokenLabel, Message: InvalidTokenMessage}
}

// InvalidTokenf is InvalidToken with a custom message.
func InvalidTokenf(format string, args ...any) *Fault {
	f := InvalidToken()
	f.Message = fmt.Sprintf(format, args...)
	return f
}

// WrapInvalidToken is InvalidToken with an underlying cause.
func WrapInvalidToken(cause error) *Fault {
	f := InvalidToken()
	f.Cause = cause
	return f
}
