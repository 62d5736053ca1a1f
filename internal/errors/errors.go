package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes APIError comparable by code with errors.Is
func (e *APIError) Is(target error) bool {
	var apiErr *APIError
	if stderrors.As(target, &apiErr) {
		return e.Code == apiErr.Code
	}
	return false
}

// AsAPIError extracts an *APIError from an error chain
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return &APIError{
		Code:    ErrUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return &APIError{
		Code:    ErrForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// ValidationError creates a VALIDATION_ERROR
func ValidationError(field, message string) *APIError {
	return &APIError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
		Status:  http.StatusUnprocessableEntity,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{
		Code:    ErrBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// AlreadyExists creates an ALREADY_EXISTS error
func AlreadyExists(resource string) *APIError {
	return &APIError{
		Code:    ErrAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
		Status:  http.StatusConflict,
	}
}

// UnknownChat is returned when a chat id does not resolve to a room
func UnknownChat(chatID string) *APIError {
	return &APIError{
		Code:    ErrUnknownChat,
		Message: fmt.Sprintf("chat %s does not exist", chatID),
		Status:  http.StatusNotFound,
	}
}

// NotMember is returned when the sender is not a member of the room
func NotMember(userID, chatID string) *APIError {
	return &APIError{
		Code:    ErrNotMember,
		Message: fmt.Sprintf("user %s is not a member of chat %s", userID, chatID),
		Status:  http.StatusForbidden,
	}
}

// UnknownMessage is returned when a message id does not resolve
func UnknownMessage(messageID string) *APIError {
	return &APIError{
		Code:    ErrUnknownMessage,
		Message: fmt.Sprintf("message %s does not exist", messageID),
		Status:  http.StatusNotFound,
	}
}

// NotRecipient is returned when a user has no receipt for a message
func NotRecipient(userID, messageID string) *APIError {
	return &APIError{
		Code:    ErrNotRecipient,
		Message: fmt.Sprintf("user %s is not a recipient of message %s", userID, messageID),
		Status:  http.StatusForbidden,
	}
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}
