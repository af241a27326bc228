// Package apperr is the single error taxonomy shared by every service.
// Services return *Error values; handlers translate them into HTTP responses
// through middleware.RespondWithAppError.
package apperr

import (
	"errors"
	"net/http"
)

// Code identifies a failure class. Values are part of the public API.
type Code string

const (
	CodeCafeNotFound          Code = "CAFE_NOT_FOUND"
	CodePostNotFound          Code = "POST_NOT_FOUND"
	CodeMemberNotFound        Code = "MEMBER_NOT_FOUND"
	CodeOwnerNotFound         Code = "OWNER_NOT_FOUND"
	CodeNotOwner              Code = "NOT_OWNER"
	CodeNotAuthor             Code = "NOT_AUTHOR"
	CodePasswordMismatch      Code = "PASSWORD_NOT_MATCH"
	CodeValidationFailed      Code = "REQUEST_VALIDATION_FAIL"
	CodeEmailExists           Code = "EMAIL_ALREADY_EXISTS"
	CodeMemberOwnsCafes       Code = "MEMBER_OWNS_CAFES"
	CodeInvalidCredentials    Code = "INVALID_CREDENTIALS"
	CodeInvalidToken          Code = "INVALID_TOKEN"
	CodeOAuthAttributeMissing Code = "OAUTH_ATTRIBUTE_MISSING"
	CodeOAuthStateMismatch    Code = "OAUTH_STATE_MISMATCH"
	CodeInternal              Code = "INTERNAL_SERVER_ERROR"
)

var statusByCode = map[Code]int{
	CodeCafeNotFound:          http.StatusNotFound,
	CodePostNotFound:          http.StatusNotFound,
	CodeMemberNotFound:        http.StatusNotFound,
	CodeOwnerNotFound:         http.StatusNotFound,
	CodeNotOwner:              http.StatusForbidden,
	CodeNotAuthor:             http.StatusForbidden,
	CodePasswordMismatch:      http.StatusUnauthorized,
	CodeValidationFailed:      http.StatusBadRequest,
	CodeEmailExists:           http.StatusConflict,
	CodeMemberOwnsCafes:       http.StatusConflict,
	CodeInvalidCredentials:    http.StatusUnauthorized,
	CodeInvalidToken:          http.StatusUnauthorized,
	CodeOAuthAttributeMissing: http.StatusBadRequest,
	CodeOAuthStateMismatch:    http.StatusBadRequest,
	CodeInternal:              http.StatusInternalServerError,
}

// Error is a coded application error. Err, when set, is the underlying cause
// and is never rendered to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code, so sentinel
// values below work with errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus returns the status code responses for this error should carry.
func (e *Error) HTTPStatus() int {
	return StatusOf(e.Code)
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return Wrap(CodeInternal, message, err)
}

// Validation builds a REQUEST_VALIDATION_FAIL error.
func Validation(message string) *Error {
	return New(CodeValidationFailed, message)
}

var (
	ErrCafeNotFound          = New(CodeCafeNotFound, "cafe not found")
	ErrPostNotFound          = New(CodePostNotFound, "post not found")
	ErrMemberNotFound        = New(CodeMemberNotFound, "member not found")
	ErrOwnerNotFound         = New(CodeOwnerNotFound, "owner not found")
	ErrNotOwner              = New(CodeNotOwner, "only the cafe owner can do this")
	ErrNotAuthor             = New(CodeNotAuthor, "only the post author can do this")
	ErrPasswordMismatch      = New(CodePasswordMismatch, "password does not match")
	ErrEmailExists           = New(CodeEmailExists, "email already exists")
	ErrMemberOwnsCafes       = New(CodeMemberOwnsCafes, "member still owns cafes")
	ErrInvalidCredentials    = New(CodeInvalidCredentials, "invalid credentials")
	ErrInvalidToken          = New(CodeInvalidToken, "invalid or expired token")
	ErrOAuthAttributeMissing = New(CodeOAuthAttributeMissing, "required OAuth2 attribute missing")
	ErrOAuthStateMismatch    = New(CodeOAuthStateMismatch, "OAuth2 state mismatch")
)

// CodeOf extracts the code from err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// StatusOf maps a code to its HTTP status.
func StatusOf(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
