package constant

import "errors"

// Domain error kinds. Services return these (possibly wrapped with %w) so the
// error middleware can map them to HTTP status codes without string matching.
var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrMessageNotFound  = errors.New("chat message not found")
	ErrInvalidTitle     = errors.New("session title must not be empty")
	ErrNoActiveSession  = errors.New("no active chat session selected")
	ErrGenerationFailed = errors.New("assistant reply generation failed")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrEmailAlreadyExists = errors.New("email is already registered")
)
