package apperrors

import (
	"net/http"
)

// Factories for errors that wrap a repository cause.

// ErrNotFound converts a repository miss (gorm.ErrRecordNotFound) into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrConflict builds a 409 around an underlying cause.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidStatus builds a 409 for a state-machine violation.
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// Predefined chat domain errors.

// ErrRoomNotFound - the referenced chat room does not exist.
var ErrRoomNotFound = New(
	CodeNotFound,
	"chat",
	"Chat room not found",
	http.StatusNotFound,
)

// ErrRoomAccessDenied - the caller is not a participant of the room.
var ErrRoomAccessDenied = New(
	CodeForbidden,
	"chat",
	"You do not have access to this chat room",
	http.StatusForbidden,
)

// ErrRoomClosed - the room no longer accepts new messages.
var ErrRoomClosed = New(
	CodeInvalidStatus,
	"chat",
	"Chat room is closed",
	http.StatusConflict,
)

// ErrManagerAlreadyAssigned - the room already has a different manager and
// reassignment was not requested.
var ErrManagerAlreadyAssigned = New(
	CodeConflict,
	"chat",
	"Chat room is already assigned to another manager",
	http.StatusConflict,
)

// ErrMessageNotFound - the referenced message does not exist in the room.
var ErrMessageNotFound = New(
	CodeNotFound,
	"chat",
	"Message not found",
	http.StatusNotFound,
)

// Predefined auth domain errors.

// ErrEmailAlreadyExists - the email is already registered.
var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

// ErrInvalidCredentials - wrong email or password.
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrInvalidToken - malformed or expired bearer token.
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// ErrUserNotFound - the referenced user does not exist.
var ErrUserNotFound = New(
	CodeNotFound,
	"auth",
	"User not found",
	http.StatusNotFound,
)
