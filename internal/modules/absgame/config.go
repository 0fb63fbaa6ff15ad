package absgame

import (
	"errors"
	"time"
)

// Config holds the abs game module configuration.
type Config struct {
	// ChannelIDs limits games to these channels. Empty allows every channel.
	ChannelIDs    []uint64      `env:"ABS_GAME_CHANNEL_IDS" envSeparator:","`
	LobbyInterval time.Duration `env:"ABS_GAME_LOBBY_INTERVAL" envDefault:"5s"`
	LobbyUpdates  int           `env:"ABS_GAME_LOBBY_UPDATES" envDefault:"6"`
	RoundInterval time.Duration `env:"ABS_GAME_ROUND_INTERVAL" envDefault:"3s"`
	Flashes       int           `env:"ABS_GAME_FLASHES" envDefault:"4"`
	// TargetsFile replaces the built-in target table with a YAML file.
	TargetsFile        string `env:"ABS_GAME_TARGETS"`
	TypingDisqualifies bool   `env:"ABS_GAME_TYPING_DISQUALIFIES" envDefault:"true"`
}

// Validate checks the configured timings.
func (c *Config) Validate() error {
	if c.LobbyInterval <= 0 || c.RoundInterval <= 0 {
		return errors.New("abs game intervals must be positive")
	}
	if c.LobbyUpdates <= 0 {
		return errors.New("ABS_GAME_LOBBY_UPDATES must be positive")
	}
	if c.Flashes <= 0 {
		return errors.New("ABS_GAME_FLASHES must be positive")
	}
	return nil
}
