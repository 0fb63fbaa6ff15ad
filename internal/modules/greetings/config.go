package greetings

import (
	"errors"
	"time"
)

// Config holds the greetings module configuration.
type Config struct {
	// Delay is how long a new member waits for their greeting.
	Delay time.Duration `env:"GREETINGS_DELAY" envDefault:"1s"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Delay < 0 {
		return errors.New("GREETINGS_DELAY must not be negative")
	}
	return nil
}
