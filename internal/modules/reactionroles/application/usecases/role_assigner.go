package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/enescakir/emoji"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
)

var (
	emojiThinking = emoji.ThinkingFace.String()
	emojiCrying   = emoji.CryingFace.String()
)

const (
	textAlreadyReacted = "You already have the **%s** role. Remove your \u200b %s \u200b reaction from " +
		"[this message](%s) if you don't want this role."
	textAlreadyUnreacted = "You don't currently have the **%s** role. Add a \u200b %s \u200b reaction to " +
		"[this message](%s) if you would like this role."
	textGainedPrivate      = "You have gained the **%s** role by reacting to [this message](%s)!"
	textLostPrivate        = "You have lost the **%s** role by un-reacting to [this message](%s)."
	textGainedPublic       = "%s has gained the %s role from [this message](%s)!"
	textLostPublic         = "%s has lost the %s role from [this message](%s)."
	textCancellationsOff   = "Automatic removal is disabled for the **%s** role. Please let an admin know if you would like this role to be removed."
	textRedundantReaction  = "You already have the **%s** role. Please let an admin know if you would like this role to be removed."
	textAlreadySelected    = "You may only select one role from [this message](%s), and automatic switching is disabled. " +
		"Please let an admin know if you would like to change your selection (currently **%s**)."
	textMissingRole = "Something went wrong - that role doesn't exist!"
)

// ReactionInput is a reaction added to or removed from a guild message.
type ReactionInput struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
	UserID    snowflake.ID
	Emoji     string
	Added     bool
}

// RoleAssigner grants and revokes roles in response to reactions. Role
// changes are serialized so that single-select rules see a consistent view of
// each member's roles.
type RoleAssigner struct {
	mu        sync.Mutex
	configs   *ConfigService
	messenger gateway.Messenger
	guilds    gateway.GuildDirectory
}

// NewRoleAssigner creates a new RoleAssigner.
func NewRoleAssigner(configs *ConfigService, messenger gateway.Messenger, guilds gateway.GuildDirectory) *RoleAssigner {
	return &RoleAssigner{
		configs:   configs,
		messenger: messenger,
		guilds:    guilds,
	}
}

// Handle applies one reaction. Reactions on messages without a reactive
// configuration, or with an emoji that has no association, are ignored.
func (a *RoleAssigner) Handle(ctx context.Context, input ReactionInput) error {
	config, found, err := a.configs.Get(ctx, domain.MessageLink{
		GuildID:   input.GuildID,
		ChannelID: input.ChannelID,
		MessageID: input.MessageID,
	})
	if err != nil {
		return err
	}
	if !found || !config.IsReactive {
		return nil
	}
	association, ok := config.Lookup(input.Emoji)
	if !ok {
		return nil
	}

	logger := slog.With(
		"guild_id", input.GuildID.String(),
		"message_id", input.MessageID.String(),
		"user_id", input.UserID.String(),
		"emoji", association.Emoji,
		"added", input.Added,
	)

	role, err := a.guilds.Role(ctx, input.GuildID, association.RoleID)
	if errors.Is(err, gateway.ErrRoleNotFound) {
		logger.Error("reaction role no longer exists", "role_id", association.RoleID.String())
		a.direct(ctx, input.UserID, embeds.Basic(textMissingRole, embeds.Error))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve role: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	held, err := a.guilds.MemberRoles(ctx, input.GuildID, input.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve member roles: %w", err)
	}
	change := roleChange{
		config:      config,
		association: association,
		role:        role,
		userID:      input.UserID,
		held:        held,
		logger:      logger,
	}

	switch {
	case config.AllowMultiselect && input.Added:
		return a.grant(ctx, change)
	case config.AllowMultiselect:
		return a.revoke(ctx, change)
	case input.Added && config.AllowCancellation:
		if err := a.releaseOthers(ctx, change); err != nil {
			return err
		}
		return a.grant(ctx, change)
	case input.Added:
		return a.grantExclusive(ctx, change)
	default:
		// The bot's own reaction cleanup lands here after the role is gone.
		if !change.holds(association.RoleID) {
			logger.Debug("member already lacks role", "role_id", role.ID.String())
			return nil
		}
		return a.revoke(ctx, change)
	}
}

type roleChange struct {
	config      domain.Config
	association domain.Association
	role        gateway.Role
	userID      snowflake.ID
	held        []snowflake.ID
	logger      *slog.Logger
}

func (c roleChange) holds(roleID snowflake.ID) bool {
	return slices.Contains(c.held, roleID)
}

func (c roleChange) ref() gateway.MessageRef {
	return gateway.MessageRef{ChannelID: c.config.Link.ChannelID, ID: c.config.Link.MessageID}
}

// releaseOthers removes every other role of the message the member holds,
// along with the matching reactions.
func (a *RoleAssigner) releaseOthers(ctx context.Context, c roleChange) error {
	for _, other := range c.config.Associations {
		if gateway.SameEmoji(other.Emoji, c.association.Emoji) || !c.holds(other.RoleID) {
			continue
		}
		c.logger.Info("removing previously selected role", "role_id", other.RoleID.String())
		if err := a.guilds.RemoveRole(ctx, c.config.Link.GuildID, c.userID, other.RoleID); err != nil {
			return fmt.Errorf("failed to remove role: %w", err)
		}
		c.held = slices.DeleteFunc(c.held, func(id snowflake.ID) bool { return id == other.RoleID })
		if err := a.messenger.RemoveUserReaction(ctx, c.ref(), other.Emoji, c.userID); err != nil {
			c.logger.Warn("failed to remove previous reaction", "reaction", other.Emoji, "error", err)
		}
	}
	return nil
}

// grantExclusive adds the role only if the member has not picked another
// role from the message; otherwise the new reaction is withdrawn.
func (a *RoleAssigner) grantExclusive(ctx context.Context, c roleChange) error {
	for _, other := range c.config.Associations {
		if gateway.SameEmoji(other.Emoji, c.association.Emoji) || other.RoleID == c.association.RoleID || !c.holds(other.RoleID) {
			continue
		}
		c.logger.Info("member already selected a role and switching is disabled", "role_id", other.RoleID.String())
		if err := a.messenger.RemoveUserReaction(ctx, c.ref(), c.association.Emoji, c.userID); err != nil {
			c.logger.Warn("failed to remove reaction", "error", err)
		}
		name := other.RoleID.String()
		if selected, err := a.guilds.Role(ctx, c.config.Link.GuildID, other.RoleID); err == nil {
			name = selected.Name
		}
		a.direct(ctx, c.userID, embeds.Basicf(domain.EmojiSingleSelect, textAlreadySelected, c.config.Link.URL(), name))
		return nil
	}
	return a.grant(ctx, c)
}

func (a *RoleAssigner) grant(ctx context.Context, c roleChange) error {
	link := c.config.Link.URL()
	if c.holds(c.role.ID) {
		if c.config.AllowCancellation {
			a.direct(ctx, c.userID, embeds.Basicf(emojiThinking, textAlreadyReacted, c.role.Name, c.association.Emoji, link))
		} else {
			a.direct(ctx, c.userID, embeds.Basicf(emojiThinking, textRedundantReaction, c.role.Name))
		}
		return nil
	}

	c.logger.Info("adding role", "role_id", c.role.ID.String())
	if err := a.guilds.AddRole(ctx, c.config.Link.GuildID, c.userID, c.role.ID); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	a.confirm(ctx, c,
		fmt.Sprintf(textGainedPublic, "<@"+c.userID.String()+">", c.role.Mention(), link),
		fmt.Sprintf(textGainedPrivate, c.role.Name, link),
	)
	return nil
}

func (a *RoleAssigner) revoke(ctx context.Context, c roleChange) error {
	link := c.config.Link.URL()
	if !c.holds(c.role.ID) {
		a.direct(ctx, c.userID, embeds.Basicf(emojiThinking, textAlreadyUnreacted, c.role.Name, c.association.Emoji, link))
		return nil
	}
	if !c.config.AllowCancellation {
		c.logger.Info("not removing role because cancellations are disabled", "role_id", c.role.ID.String())
		a.direct(ctx, c.userID, embeds.Basicf(emojiCrying, textCancellationsOff, c.role.Name))
		return nil
	}

	c.logger.Info("removing role", "role_id", c.role.ID.String())
	if err := a.guilds.RemoveRole(ctx, c.config.Link.GuildID, c.userID, c.role.ID); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	a.confirm(ctx, c,
		fmt.Sprintf(textLostPublic, "<@"+c.userID.String()+">", c.role.Mention(), link),
		fmt.Sprintf(textLostPrivate, c.role.Name, link),
	)
	return nil
}

func (a *RoleAssigner) confirm(ctx context.Context, c roleChange, public, private string) {
	switch c.config.ConfirmationType {
	case domain.ConfirmationPublic:
		if _, err := a.messenger.Send(ctx, c.config.ConfirmationChannelID, gateway.OutgoingMessage{
			Embed: embeds.Basic(public, c.association.Emoji),
		}); err != nil {
			c.logger.Warn("failed to post role confirmation", "channel_id", c.config.ConfirmationChannelID.String(), "error", err)
		}
	case domain.ConfirmationPrivate:
		a.direct(ctx, c.userID, embeds.Basic(private, c.association.Emoji))
	}
}

func (a *RoleAssigner) direct(ctx context.Context, userID snowflake.ID, embed *discordgo.MessageEmbed) {
	if _, err := a.messenger.SendDirect(ctx, userID, gateway.OutgoingMessage{Embed: embed}); err != nil {
		slog.Warn("failed to send direct message", "user_id", userID.String(), "error", err)
	}
}
