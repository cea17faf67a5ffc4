package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrRoleRequired is returned when creating an account with no roles.
	ErrRoleRequired = errors.New("account must have at least one role")
	// ErrEmailTaken is returned when the email belongs to another live account.
	ErrEmailTaken = errors.New("email is already in use")
	// ErrCannotDeactivateSelf is returned when an actor deactivates their own account.
	ErrCannotDeactivateSelf = errors.New("cannot deactivate your own account")
	// ErrAlreadyConfirmed is returned when confirming a confirmed account.
	ErrAlreadyConfirmed = errors.New("account is already confirmed")
	// ErrNotConfirmed is returned when un-confirming an unconfirmed account.
	ErrNotConfirmed = errors.New("account is not confirmed")
	// ErrProtectedAccount is returned when un-confirming the primordial administrator.
	ErrProtectedAccount = errors.New("cannot unconfirm the administrator account")
	// ErrCannotUnconfirmSelf is returned when an actor un-confirms their own account.
	ErrCannotUnconfirmSelf = errors.New("cannot unconfirm your own account")
	// ErrAccountNotDeleted is returned by restore and permanent delete on a live account.
	ErrAccountNotDeleted = errors.New("account must be deleted first")
	// ErrAccountDisabled is returned on login for a deactivated account.
	ErrAccountDisabled = errors.New("account is deactivated")
	// ErrAccountUnconfirmed is returned on login for an unconfirmed account.
	ErrAccountUnconfirmed = errors.New("account is not yet confirmed")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "ACCOUNT_NOT_FOUND")
	case errors.Is(err, ErrRoleRequired):
		return NewHTTPError(http.StatusUnprocessableEntity, err.Error(), "ROLE_REQUIRED")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrCannotDeactivateSelf):
		return NewHTTPError(http.StatusForbidden, err.Error(), "CANNOT_DEACTIVATE_SELF")
	case errors.Is(err, ErrAlreadyConfirmed):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_CONFIRMED")
	case errors.Is(err, ErrNotConfirmed):
		return NewHTTPError(http.StatusConflict, err.Error(), "NOT_CONFIRMED")
	case errors.Is(err, ErrProtectedAccount):
		return NewHTTPError(http.StatusForbidden, err.Error(), "PROTECTED_ACCOUNT")
	case errors.Is(err, ErrCannotUnconfirmSelf):
		return NewHTTPError(http.StatusForbidden, err.Error(), "CANNOT_UNCONFIRM_SELF")
	case errors.Is(err, ErrAccountNotDeleted):
		return NewHTTPError(http.StatusConflict, err.Error(), "ACCOUNT_NOT_DELETED")
	case errors.Is(err, ErrAccountDisabled):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCOUNT_DISABLED")
	case errors.Is(err, ErrAccountUnconfirmed):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCOUNT_UNCONFIRMED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
