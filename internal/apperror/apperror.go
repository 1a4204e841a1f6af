package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")

	// ErrStorage marks a read, write or delete rejected by the key-value namespace.
	ErrStorage = errors.New("storage failure")
	// ErrMissingCredential marks a generation attempted with no stored API key.
	ErrMissingCredential = errors.New("missing credential")
	// ErrAPI marks a non-success response from the generation endpoint.
	ErrAPI = errors.New("api error")
	// ErrTransport marks a network or decoding failure that kept a generation
	// request from completing.
	ErrTransport = errors.New("transport failure")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status reported by a remote service
	Cause   error  // Optional: underlying error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel kind and the underlying cause, so
// errors.Is matches either of them.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Busy returns a conflict error for an action that is already running.
func Busy(action string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already in progress", action),
	}
}

// StorageFailure wraps an error returned by the key-value namespace.
func StorageFailure(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("storage %s failed: %v", op, cause),
		Cause:   cause,
	}
}

// MissingCredential is returned before any network call when no API key is stored.
func MissingCredential() *AppError {
	return &AppError{
		Err:     ErrMissingCredential,
		Message: "No API key found. Please set your Groq API key first.",
	}
}

// APIFailure carries the message the remote service reported for a
// non-success status.
func APIFailure(status int, message string) *AppError {
	return &AppError{
		Err:     ErrAPI,
		Message: "API Error: " + message,
		Status:  status,
	}
}

// TransportFailure wraps a network or decoding error.
func TransportFailure(cause error) *AppError {
	return &AppError{
		Err:     ErrTransport,
		Message: cause.Error(),
		Cause:   cause,
	}
}
