package usecases

import "errors"

// Errors for the abs game module.
var (
	// ErrChannelNotAllowed is returned when a game is requested outside the configured channels.
	ErrChannelNotAllowed = errors.New("games are not allowed in this channel")

	// ErrGameInProgress is returned when another game is already running.
	ErrGameInProgress = errors.New("a game is already in progress")
)
