package usecases

import "errors"

// Errors for the greetings module.
var (
	// ErrSessionActive is returned when the guild's greetings are already being edited.
	ErrSessionActive = errors.New("a greeting configuration session is already active")
)
