package oneblog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced to callers
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_error"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidCode  ErrorKind = "invalid_code"
	KindUpstream     ErrorKind = "upstream_failure"
)

// User facing messages
const (
	MsgAllFieldsRequired     = "All fields are required"
	MsgEmailPasswordRequired = "Email and password are required"
	MsgEmailRequired         = "Email is required"
	MsgUserExists            = "User already exists"
	MsgInvalidCredentials    = "Invalid credentials"
	MsgInvalidOTC            = "Invalid or expired OTP"
	MsgUserNotFound          = "User not found"
	MsgBlogNotFound          = "Blog not found"
	MsgNotAuthorized         = "You are not authorized to do this operation"
	MsgLoginRequired         = "Please login first"
	MsgInvalidToken          = "Invalid or expired token"
	MsgEmailSendFailed       = "Failed to send email. Please try again."
	MsgForgotPasswordSent    = "If this email is registered, you will receive an OTP shortly."
	MsgInternal              = "Internal server error"
	MsgPasswordTooLong       = "Password must be at most 72 bytes"
	MsgFetchBlogsFailed      = "Error fetching blogs"
	MsgCreateBlogFailed      = "Error creating blog"
	MsgUpdateBlogFailed      = "Error updating blog"
	MsgDeleteBlogFailed      = "Error deleting blog"
)

// Error is the typed failure returned by the auth flows and blog service.
// Err holds the underlying cause for logging and is never rendered.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the error kind onto an HTTP status
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindInvalidCode:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(message, field string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

func upstreamError(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

// AsError returns err as an *Error, wrapping anything unrecognised as an
// upstream failure with a generic message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return upstreamError(MsgInternal, err)
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
