package agent

import "errors"

var (
	ErrNotFound     = errors.New("agent: not found")
	ErrConflict     = errors.New("agent: email already registered")
	ErrInvalidInput = errors.New("agent: invalid input")
	ErrUnauthorized = errors.New("agent: unauthorized")

	// ErrInvalidToken indicates the session token failed validation.
	ErrInvalidToken = errors.New("agent: invalid token")
)
