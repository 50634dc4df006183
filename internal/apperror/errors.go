package apperror

import "errors"

// Sentinel errors shared between repositories, services and the HTTP layer.
// The error handler middleware in serverutils maps them to status codes.
var (
	ErrChatNotFound  = errors.New("chat not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrDuplicateChat = errors.New("chat with this name already exists")

	// ErrLockTimeout is returned when the per-chat row lock cannot be
	// acquired within the configured lock_timeout.
	ErrLockTimeout = errors.New("chat is busy, try again")
)
