package activationkey

import (
	"errors"
	"fmt"
)

// ErrInvalidKeyName is matched by every ValidationError.
var ErrInvalidKeyName = errors.New("invalid activation key name")

// Reason names the rule a key name broke.
type Reason string

const (
	ReasonInvalidChars Reason = "invalid_chars"
	ReasonExists       Reason = "exists"
)

// ValidationError is returned when a key name is rejected before anything
// is written.
type ValidationError struct {
	Key    string
	Reason Reason
	// Chars lists the disallowed characters for ReasonInvalidChars.
	Chars []string
}

// InvalidCharsError reports key as containing a disallowed character.
func InvalidCharsError(key string) *ValidationError {
	return &ValidationError{Key: key, Reason: ReasonInvalidChars, Chars: badChars}
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonInvalidChars:
		return fmt.Sprintf("activation key %q contains invalid characters %q", e.Key, e.Chars)
	case ReasonExists:
		return fmt.Sprintf("activation key %q already exists", e.Key)
	default:
		return fmt.Sprintf("activation key %q is invalid", e.Key)
	}
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidKeyName
}
