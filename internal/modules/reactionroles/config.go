package reactionroles

import "errors"

// Config holds the reaction-roles module configuration.
type Config struct {
	// QueueSize is how many reactions may wait for the role assigner.
	QueueSize int `env:"REACTION_ROLES_QUEUE_SIZE" envDefault:"100"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return errors.New("REACTION_ROLES_QUEUE_SIZE must be positive")
	}
	return nil
}
