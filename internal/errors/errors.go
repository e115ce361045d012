package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/orp-io/orp/internal/protocol"
	"github.com/orp-io/orp/internal/transport"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeInvalidCommand     ErrorType = "INVALID_COMMAND"
	ErrorTypePayloadUnavailable ErrorType = "PAYLOAD_UNAVAILABLE"
	ErrorTypeMalformedHeader    ErrorType = "MALFORMED_HEADER"
	ErrorTypeInvalidStatus      ErrorType = "INVALID_STATUS"
	ErrorTypeTransportDown      ErrorType = "TRANSPORT_DOWN"
	ErrorTypeConfig             ErrorType = "CONFIG_ERROR"
	ErrorTypeValidation         ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeInternal           ErrorType = "INTERNAL_ERROR"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Common error constructors.

// NewInvalidCommandError creates an invalid command error.
func NewInvalidCommandError(message string) *AppError {
	return New(ErrorTypeInvalidCommand, message, http.StatusBadRequest)
}

// NewPayloadUnavailableError creates an error for an unreadable push payload.
func NewPayloadUnavailableError(path string) *AppError {
	return New(ErrorTypePayloadUnavailable, fmt.Sprintf("payload %s unavailable", path), http.StatusNotFound)
}

// NewMalformedHeaderError creates an error for a truncated incoming packet.
func NewMalformedHeaderError(message string) *AppError {
	return New(ErrorTypeMalformedHeader, message, http.StatusUnprocessableEntity)
}

// NewInvalidStatusError creates an error for a status byte outside the table.
func NewInvalidStatusError(message string) *AppError {
	return New(ErrorTypeInvalidStatus, message, http.StatusUnprocessableEntity)
}

// NewTransportDownError creates an error for an unusable serial link.
func NewTransportDownError(device string) *AppError {
	return New(ErrorTypeTransportDown, fmt.Sprintf("serial link %s is down", device), http.StatusServiceUnavailable)
}

// WrapTransportDownError wraps a dial or write failure on the serial link.
func WrapTransportDownError(err error, device string) *AppError {
	return Wrap(err, ErrorTypeTransportDown, fmt.Sprintf("serial link %s is down", device), http.StatusServiceUnavailable)
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *AppError {
	return New(ErrorTypeConfig, message, http.StatusInternalServerError)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewInternalError creates an internal server error.
func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// WrapInternalError wraps an error as internal server error.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message, http.StatusInternalServerError)
}

// FromCodec classifies an error from the protocol codec or the transport
// into an AppError, preserving the cause. Unrecognized errors come back as
// internal.
func FromCodec(err error) *AppError {
	var cmdErr *protocol.ErrInvalidCommand
	if errors.As(err, &cmdErr) {
		return Wrap(err, ErrorTypeInvalidCommand, cmdErr.Reason, http.StatusBadRequest)
	}

	var payloadErr *protocol.ErrPayloadUnavailable
	if errors.As(err, &payloadErr) {
		return Wrap(err, ErrorTypePayloadUnavailable, payloadErr.Error(), http.StatusNotFound)
	}

	var headerErr *protocol.ErrMalformedHeader
	if errors.As(err, &headerErr) {
		return Wrap(err, ErrorTypeMalformedHeader, headerErr.Error(), http.StatusUnprocessableEntity)
	}

	var statusErr *protocol.ErrInvalidStatusByte
	if errors.As(err, &statusErr) {
		return Wrap(err, ErrorTypeInvalidStatus, statusErr.Error(), http.StatusUnprocessableEntity)
	}

	if errors.Is(err, transport.ErrLinkClosed) {
		return Wrap(err, ErrorTypeTransportDown, "serial link is closed", http.StatusServiceUnavailable)
	}

	return WrapInternalError(err, "unexpected error")
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from an error.
func GetAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
