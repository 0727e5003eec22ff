package domain

import "errors"

// Failure kinds. Every error returned by the services wraps exactly one of
// these, so callers classify with errors.Is.
var (
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidInput   = errors.New("invalid input")
)

// Error is a display-safe message tagged with its failure kind.
type Error struct {
	kind error
	msg  string
}

func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Identity errors
var (
	ErrUserExists     = NewError(ErrConflict, "User already exists")
	ErrUserNotFound   = NewError(ErrNotFound, "User not found")
	ErrBadCredentials = NewError(ErrUnauthorized, "Bad credentials")
)

// Token and session errors
var (
	ErrNoToken              = NewError(ErrUnauthorized, "No token provided")
	ErrInvalidToken         = NewError(ErrUnauthorized, "Invalid token")
	ErrTokenUnreadable      = NewError(ErrMalformedToken, "Malformed token")
	ErrRefreshTokenNotFound = NewError(ErrNotFound, "Refresh token not found")
	ErrRefreshTokenExpired  = NewError(ErrUnauthorized, "Refresh token expired")
	ErrAccessTokenMismatch  = NewError(ErrUnauthorized, "Access token is not valid")
	ErrSubjectMismatch      = NewError(ErrUnauthorized, "Token subject does not match")
)

// Todo errors
var (
	ErrTaskNotFound = NewError(ErrNotFound, "Task not found")

	ErrInvalidPage     = NewError(ErrInvalidInput, "page must be greater than or equal to 0")
	ErrInvalidPageSize = NewError(ErrInvalidInput, "size must be greater than or equal to 1")
	ErrPageOutOfRange  = NewError(ErrInvalidInput, "page is out of range")
)

// IsUnauthorized reports whether err should be answered as 401.
// A malformed token is treated the same as a rejected one.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrMalformedToken)
}
