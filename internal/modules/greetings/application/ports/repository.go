package ports

//go:generate mockgen -source=repository.go -destination=mocks/repository.go -package=mocks

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
)

// Repository persists greeting configurations by guild.
type Repository interface {
	// Get returns the stored configuration and whether one exists.
	Get(ctx context.Context, guildID snowflake.ID) (domain.Config, bool, error)
	// Save replaces the configuration atomically.
	Save(ctx context.Context, guildID snowflake.ID, config domain.Config) error
	// Delete removes the configuration and reports whether one existed.
	Delete(ctx context.Context, guildID snowflake.ID) (bool, error)
}
