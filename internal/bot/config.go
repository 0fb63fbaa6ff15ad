package bot

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"cirquebot.db"`

	// SessionTimeout bounds every wait for user input in interactive sessions.
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"180s"`
	// ConfigCacheTTL is how long committed configuration stays cached.
	ConfigCacheTTL  time.Duration `env:"CONFIG_CACHE_TTL" envDefault:"10m"`
	EventBufferSize int           `env:"EVENT_BUFFER_SIZE" envDefault:"256"`

	Log LogConfig `envPrefix:"LOG_"`
}

// LogConfig controls the default logger.
type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
	// File enables rotated file output instead of stdout.
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
