package usecases

import "errors"

var (
	// ErrMessageNotFound is returned when a linked message cannot be fetched.
	ErrMessageNotFound = errors.New("message not found")

	// ErrForeignMessage is returned for links to messages in another guild.
	ErrForeignMessage = errors.New("message belongs to another server")

	// ErrCannotAddReactions is returned when the bot may not react in the channel.
	ErrCannotAddReactions = errors.New("missing permission to add reactions")

	// ErrCannotManageMessages is returned when the bot may not remove reactions in the channel.
	ErrCannotManageMessages = errors.New("missing permission to manage messages")

	// ErrNotConfigured is returned when a message has no reaction-role configuration.
	ErrNotConfigured = errors.New("message has no reaction-role configuration")

	// ErrSessionActive is returned when a configuration session is already running in the guild.
	ErrSessionActive = errors.New("a reaction-role configuration session is already active")
)
