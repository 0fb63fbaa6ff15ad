package session

import "errors"

// Session errors.
var (
	// ErrPromptTimeout is returned by a prompt whose wait expired.
	// The session has already been finished with OutcomeTimedOut when it is returned.
	ErrPromptTimeout = errors.New("prompt timed out")

	// ErrSessionFinished is returned when a prompt is abandoned because the session ended.
	ErrSessionFinished = errors.New("session already finished")

	// ErrSessionConflict is returned when a scope already has an active session.
	ErrSessionConflict = errors.New("another session is active in this scope")
)
