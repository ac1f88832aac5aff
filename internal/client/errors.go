package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/evcraddock/property-listing/internal/property"
)

// DefaultMessage is shown when an error carries no usable message.
const DefaultMessage = "Something went wrong. Please try again."

// AuthError is returned when login or registration is rejected.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// FetchError is returned when the property list cannot be fetched.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string { return e.Message }

// NotFoundError is returned when no property matches the requested ID.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string { return "Property not found" }

// ServerError is a non-success response carrying a server message, or a
// success response that does not have the expected shape.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// UploadError is returned when an image upload fails or returns no usable path.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string { return e.Message }

// TransportError wraps a failure to reach the server or read its reply.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage returns the text to show the user for err. Server-supplied
// messages win over the generic fallback.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		authErr   *AuthError
		fetchErr  *FetchError
		notFound  *NotFoundError
		serverErr *ServerError
		uploadErr *UploadError
		validErr  *property.ValidationError
	)
	switch {
	case errors.As(err, &authErr):
		return orDefault(authErr.Message)
	case errors.As(err, &fetchErr):
		return orDefault(fetchErr.Message)
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &serverErr):
		return orDefault(serverErr.Message)
	case errors.As(err, &uploadErr):
		return orDefault(uploadErr.Message)
	case errors.As(err, &validErr):
		return validErr.Error()
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond."
	default:
		return DefaultMessage
	}
}

func orDefault(msg string) string {
	if msg == "" {
		return DefaultMessage
	}
	return msg
}
