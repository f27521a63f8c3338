package flow

import "errors"

// Error taxonomy surfaced to the API layer. Everything else that bubbles out
// of the service is treated as an internal fault.
var (
	ErrInvalidInput       = errors.New("flow: email is required")
	ErrMissingFields      = errors.New("flow: missing required fields")
	ErrInvalidOTP         = errors.New("flow: invalid or expired otp")
	ErrUserExists         = errors.New("flow: user already exists")
	ErrInvalidCredentials = errors.New("flow: invalid email or password")
	ErrUserNotFound       = errors.New("flow: user not found")
)
