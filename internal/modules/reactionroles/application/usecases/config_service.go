package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
	"github.com/sglre6355/cirquebot/internal/storage/cache"
)

// ConfigService reads and writes committed reaction-role configurations. A
// guild's configurations are cached together because every reaction in the
// guild is checked against them.
type ConfigService struct {
	repo      ports.Repository
	cache     *cache.Cache[[]domain.Config]
	messenger gateway.Messenger
	guilds    gateway.GuildDirectory
	selfID    snowflake.ID
}

// NewConfigService creates a new ConfigService. selfID identifies the bot's
// own reactions.
func NewConfigService(
	repo ports.Repository,
	cache *cache.Cache[[]domain.Config],
	messenger gateway.Messenger,
	guilds gateway.GuildDirectory,
	selfID snowflake.ID,
) *ConfigService {
	return &ConfigService{
		repo:      repo,
		cache:     cache,
		messenger: messenger,
		guilds:    guilds,
		selfID:    selfID,
	}
}

func cacheKey(guildID snowflake.ID) string {
	return guildID.String()
}

// List returns every configuration in the guild.
func (s *ConfigService) List(ctx context.Context, guildID snowflake.ID) ([]domain.Config, error) {
	return s.cache.GetOrLoad(ctx, cacheKey(guildID), func(ctx context.Context) ([]domain.Config, error) {
		configs, err := s.repo.ListByGuild(ctx, guildID)
		if err != nil {
			return nil, fmt.Errorf("failed to load reaction roles: %w", err)
		}
		return configs, nil
	})
}

// Get returns the configuration of the linked message.
func (s *ConfigService) Get(ctx context.Context, link domain.MessageLink) (domain.Config, bool, error) {
	configs, err := s.List(ctx, link.GuildID)
	if err != nil {
		return domain.Config{}, false, err
	}
	i := slices.IndexFunc(configs, func(c domain.Config) bool {
		return c.Link.MessageID == link.MessageID && c.Link.ChannelID == link.ChannelID
	})
	if i < 0 {
		return domain.Config{}, false, nil
	}
	return configs[i], true, nil
}

// Save replaces the configuration of config.Link.
func (s *ConfigService) Save(ctx context.Context, config domain.Config) error {
	return s.cache.Update(cacheKey(config.Link.GuildID), func() error {
		if err := s.repo.Save(ctx, config); err != nil {
			return fmt.Errorf("failed to save reaction roles: %w", err)
		}
		return nil
	})
}

// Delete removes the configuration of the linked message.
func (s *ConfigService) Delete(ctx context.Context, link domain.MessageLink) (bool, error) {
	var deleted bool
	err := s.cache.Update(cacheKey(link.GuildID), func() error {
		var err error
		deleted, err = s.repo.Delete(ctx, link.GuildID, link.MessageID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete reaction roles: %w", err)
	}
	return deleted, nil
}

// Validate checks that the linked message is in the guild, exists, and that
// the bot may add and remove reactions on it.
func (s *ConfigService) Validate(ctx context.Context, guildID snowflake.ID, link domain.MessageLink) error {
	if link.GuildID != guildID {
		return ErrForeignMessage
	}
	exists, err := s.guilds.MessageExists(ctx, gateway.MessageRef{ChannelID: link.ChannelID, ID: link.MessageID})
	if err != nil {
		return err
	}
	if !exists {
		return ErrMessageNotFound
	}

	access, err := s.guilds.ReactionAccess(ctx, link.ChannelID)
	switch {
	case errors.Is(err, gateway.ErrChannelNotFound):
		return ErrMessageNotFound
	case err != nil:
		return err
	case !access.CanAdd:
		return ErrCannotAddReactions
	case !access.CanManage:
		return ErrCannotManageMessages
	}
	return nil
}

// SyncReactions makes the message carry exactly the configured reactions, or
// none when the message is not reactive.
func (s *ConfigService) SyncReactions(ctx context.Context, config domain.Config) error {
	ref := gateway.MessageRef{ChannelID: config.Link.ChannelID, ID: config.Link.MessageID}
	if !config.IsReactive {
		return s.messenger.ClearReactions(ctx, ref)
	}

	for _, emoji := range config.Emoji() {
		if err := s.messenger.AddReaction(ctx, ref, emoji); err != nil {
			return err
		}
	}

	present, err := s.guilds.MessageReactions(ctx, ref)
	if err != nil {
		return err
	}
	for _, emoji := range present {
		if _, ok := config.Lookup(emoji); ok {
			continue
		}
		if err := s.messenger.ClearEmojiReactions(ctx, ref, emoji); err != nil {
			return err
		}
	}
	return nil
}

// ListOutput contains the output for the ListMessages use case.
type ListOutput struct {
	GuildName string
	Messages  []domain.Summary
}

// ListMessages lists the configured messages of a guild. Configurations of
// messages that no longer exist are deleted.
func (s *ConfigService) ListMessages(ctx context.Context, guildID snowflake.ID) (*ListOutput, error) {
	configs, err := s.List(ctx, guildID)
	if err != nil {
		return nil, err
	}
	name, err := s.guilds.GuildName(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guild name: %w", err)
	}

	output := &ListOutput{GuildName: name}
	for _, c := range configs {
		ref := gateway.MessageRef{ChannelID: c.Link.ChannelID, ID: c.Link.MessageID}
		exists, err := s.guilds.MessageExists(ctx, ref)
		if err != nil {
			slog.Warn("failed to check reaction-role message", "message_id", c.Link.MessageID.String(), "error", err)
		}
		if err == nil && !exists {
			if _, err := s.Delete(ctx, c.Link); err != nil {
				slog.Warn("failed to prune reaction roles", "message_id", c.Link.MessageID.String(), "error", err)
			}
			continue
		}
		output.Messages = append(output.Messages, domain.Summary{Link: c.Link, Emoji: c.Emoji()})
	}
	return output, nil
}

// Reset deletes the configuration of the linked message and withdraws the
// bot's reactions from it.
func (s *ConfigService) Reset(ctx context.Context, guildID snowflake.ID, link domain.MessageLink) (bool, error) {
	if err := s.Validate(ctx, guildID, link); err != nil {
		return false, err
	}
	config, found, err := s.Get(ctx, link)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if _, err := s.Delete(ctx, link); err != nil {
		return false, err
	}

	ref := gateway.MessageRef{ChannelID: link.ChannelID, ID: link.MessageID}
	for _, emoji := range config.Emoji() {
		if err := s.messenger.RemoveUserReaction(ctx, ref, emoji, s.selfID); err != nil {
			slog.Warn("failed to withdraw reaction", "message_id", link.MessageID.String(), "emoji", emoji, "error", err)
		}
	}
	return true, nil
}

// Copy applies the configuration of src to dst.
func (s *ConfigService) Copy(ctx context.Context, guildID snowflake.ID, src, dst domain.MessageLink) error {
	if err := s.Validate(ctx, guildID, src); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := s.Validate(ctx, guildID, dst); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	config, found, err := s.Get(ctx, src)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotConfigured
	}

	copied := config.Clone()
	copied.Link = dst
	if err := s.Save(ctx, copied); err != nil {
		return err
	}
	return s.SyncReactions(ctx, copied)
}
