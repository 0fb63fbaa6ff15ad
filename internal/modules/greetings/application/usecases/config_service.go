package usecases

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/storage/cache"
)

// ConfigService reads and writes committed greeting configurations through a
// read-through cache.
type ConfigService struct {
	repo   ports.Repository
	cache  *cache.Cache[domain.Config]
	guilds gateway.GuildDirectory
}

// NewConfigService creates a new ConfigService.
func NewConfigService(
	repo ports.Repository,
	cache *cache.Cache[domain.Config],
	guilds gateway.GuildDirectory,
) *ConfigService {
	return &ConfigService{
		repo:   repo,
		cache:  cache,
		guilds: guilds,
	}
}

func cacheKey(guildID snowflake.ID) string {
	return guildID.String()
}

// Get returns the committed configuration; a guild without one gets the zero Config.
func (s *ConfigService) Get(ctx context.Context, guildID snowflake.ID) (domain.Config, error) {
	return s.cache.GetOrLoad(ctx, cacheKey(guildID), func(ctx context.Context) (domain.Config, error) {
		config, _, err := s.repo.Get(ctx, guildID)
		if err != nil {
			return domain.Config{}, fmt.Errorf("failed to load greeting config: %w", err)
		}
		return config, nil
	})
}

// Save replaces the committed configuration.
func (s *ConfigService) Save(ctx context.Context, guildID snowflake.ID, config domain.Config) error {
	return s.cache.Update(cacheKey(guildID), func() error {
		if err := s.repo.Save(ctx, guildID, config); err != nil {
			return fmt.Errorf("failed to save greeting config: %w", err)
		}
		return nil
	})
}

// ResetOutput contains the output for the Reset use case.
type ResetOutput struct {
	GuildName string
	Deleted   bool
}

// Reset deletes the guild's configuration.
func (s *ConfigService) Reset(ctx context.Context, guildID snowflake.ID) (*ResetOutput, error) {
	var deleted bool
	err := s.cache.Update(cacheKey(guildID), func() error {
		var err error
		deleted, err = s.repo.Delete(ctx, guildID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete greeting config: %w", err)
	}

	name, err := s.guilds.GuildName(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return &ResetOutput{GuildName: name, Deleted: deleted}, nil
}
