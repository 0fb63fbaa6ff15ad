package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
)

// Repository persists reaction-role configurations keyed by message.
type Repository interface {
	// ListByGuild returns every configuration in a guild, oldest first.
	ListByGuild(ctx context.Context, guildID snowflake.ID) ([]domain.Config, error)
	// Save inserts or replaces the configuration of config.Link.MessageID.
	Save(ctx context.Context, config domain.Config) error
	// Delete removes a configuration and reports whether one existed.
	Delete(ctx context.Context, guildID, messageID snowflake.ID) (bool, error)
}
