package content

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteUnavailable wraps any network, auth or configuration failure of
	// the remote store. The gateway always recovers from it via local storage.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrNotFound is returned by Get when the identifier is absent.
	ErrNotFound = errors.New("not found")

	// ErrWriteFailed is returned when neither store accepted a write.
	ErrWriteFailed = errors.New("write failed on both stores")

	// ErrCorruptSnapshot is returned by local writes when the stored blob
	// cannot be parsed.
	ErrCorruptSnapshot = errors.New("corrupt local snapshot")
)

// ValidationError rejects input before any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
