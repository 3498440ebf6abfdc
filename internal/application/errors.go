package application

import "errors"

var (
	// ErrNotFound is returned when no application matches the identifier,
	// or when it exists but belongs to another agent.
	ErrNotFound = errors.New("application: not found")

	// ErrInvalidLink is returned when a link is unknown or deactivated.
	ErrInvalidLink = errors.New("application: invalid or inactive link")

	// ErrInvalidInput marks request payloads that fail validation.
	ErrInvalidInput = errors.New("application: invalid input")

	// ErrInvalidTransition marks status changes that would move the
	// lifecycle backwards or flip a terminal outcome.
	ErrInvalidTransition = errors.New("application: invalid status transition")
)
