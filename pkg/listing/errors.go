package listing

import (
	"errors"
	"fmt"
)

// Messages shown to the user when a fetch fails.
const (
	MsgCommunicationError = "Communication error"
	MsgBackendError       = "Backend error"
)

var (
	// ErrInvalidLimit is returned when a page size is not a positive integer.
	ErrInvalidLimit = errors.New("page size must be a positive integer")

	// ErrInvalidOffset is returned when an offset cannot be parsed as an integer.
	ErrInvalidOffset = errors.New("offset must be an integer")

	// ErrNotMounted is returned for operations on a controller that is not mounted.
	ErrNotMounted = errors.New("listing is not mounted")
)

// TransportError reports a request that never completed or whose response
// could not be understood.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError reports a completed exchange in which the backend signalled
// a failure in the response envelope.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return e.Op + ": backend reported an error"
	}
	return e.Op + ": backend: " + e.Message
}

// ValidationError reports client-side input rejected before any request is built.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsApplication reports whether err is an ApplicationError.
func IsApplication(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage maps a fetch error onto the banner text. Errors that are neither
// transport nor application errors are treated as transport failures since the
// exchange did not produce a usable envelope.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsApplication(err):
		return MsgBackendError
	default:
		return MsgCommunicationError
	}
}
