package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// Compile-time checks that the Discord adapters implement the gateway ports.
var (
	_ Messenger      = (*DiscordMessenger)(nil)
	_ GuildDirectory = (*DiscordDirectory)(nil)
)

// DiscordMessenger implements Messenger using a live Discord session.
type DiscordMessenger struct {
	session *discordgo.Session
}

// NewDiscordMessenger creates a new DiscordMessenger.
func NewDiscordMessenger(session *discordgo.Session) *DiscordMessenger {
	return &DiscordMessenger{session: session}
}

// Send posts a message to a channel.
func (m *DiscordMessenger) Send(
	ctx context.Context,
	channelID snowflake.ID,
	msg OutgoingMessage,
) (MessageRef, error) {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{msg.Embed}
	}
	for _, a := range msg.Attachments {
		send.Files = append(send.Files, &discordgo.File{
			Name:        a.Name,
			ContentType: a.ContentType,
			Reader:      a.Reader,
		})
	}

	sent, err := m.session.ChannelMessageSendComplex(
		channelID.String(),
		send,
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}

	id, err := snowflake.Parse(sent.ID)
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to parse message id: %w", err)
	}
	return MessageRef{ChannelID: channelID, ID: id}, nil
}

// Edit replaces the content and embed of a message.
func (m *DiscordMessenger) Edit(ctx context.Context, ref MessageRef, msg OutgoingMessage) error {
	edit := discordgo.NewMessageEdit(ref.ChannelID.String(), ref.ID.String()).
		SetContent(msg.Content)
	if msg.Embed != nil {
		edit.SetEmbed(msg.Embed)
	}

	if _, err := m.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// Delete removes messages, bulk-deleting per channel when there is more than one.
func (m *DiscordMessenger) Delete(ctx context.Context, refs ...MessageRef) error {
	byChannel := make(map[snowflake.ID][]string)
	var order []snowflake.ID
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		if _, ok := byChannel[ref.ChannelID]; !ok {
			order = append(order, ref.ChannelID)
		}
		byChannel[ref.ChannelID] = append(byChannel[ref.ChannelID], ref.ID.String())
	}

	var errs []error
	for _, channelID := range order {
		channel := channelID.String()
		err := deleteInBatches(byChannel[channelID],
			func(id string) error {
				return m.session.ChannelMessageDelete(channel, id, discordgo.WithContext(ctx))
			},
			func(ids []string) error {
				return m.session.ChannelMessagesBulkDelete(channel, ids, discordgo.WithContext(ctx))
			},
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to delete messages in %s: %w", channelID, err))
		}
	}
	return errors.Join(errs...)
}

// maxBulkDelete is the largest batch a bulk delete accepts; the smallest is two.
const maxBulkDelete = 100

// deleteBatches splits message ids into bulk delete batches. A batch of one id
// must be deleted on its own.
func deleteBatches(ids []string) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += maxBulkDelete {
		batches = append(batches, ids[start:min(start+maxBulkDelete, len(ids))])
	}
	return batches
}

// deleteInBatches deletes ids in bulk where possible and stops at the first error.
func deleteInBatches(ids []string, single func(id string) error, bulk func(ids []string) error) error {
	for _, batch := range deleteBatches(ids) {
		var err error
		if len(batch) == 1 {
			err = single(batch[0])
		} else {
			err = bulk(batch)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AddReaction reacts to a message.
func (m *DiscordMessenger) AddReaction(ctx context.Context, ref MessageRef, emoji string) error {
	err := m.session.MessageReactionAdd(
		ref.ChannelID.String(),
		ref.ID.String(),
		emoji,
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to add reaction %s: %w", emoji, err)
	}
	return nil
}

// ClearReactions removes all reactions from a message.
func (m *DiscordMessenger) ClearReactions(ctx context.Context, ref MessageRef) error {
	err := m.session.MessageReactionsRemoveAll(
		ref.ChannelID.String(),
		ref.ID.String(),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to clear reactions: %w", err)
	}
	return nil
}

// ClearEmojiReactions removes all reactions with one emoji from a message.
func (m *DiscordMessenger) ClearEmojiReactions(ctx context.Context, ref MessageRef, emoji string) error {
	err := m.session.MessageReactionsRemoveEmoji(
		ref.ChannelID.String(),
		ref.ID.String(),
		emoji,
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to clear reaction %s: %w", emoji, err)
	}
	return nil
}

// RemoveUserReaction removes a single user's reaction from a message.
func (m *DiscordMessenger) RemoveUserReaction(
	ctx context.Context,
	ref MessageRef,
	emoji string,
	userID snowflake.ID,
) error {
	err := m.session.MessageReactionRemove(
		ref.ChannelID.String(),
		ref.ID.String(),
		emoji,
		userID.String(),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to remove reaction %s: %w", emoji, err)
	}
	return nil
}

// SendDirect opens a DM channel with the user and posts the message there.
func (m *DiscordMessenger) SendDirect(
	ctx context.Context,
	userID snowflake.ID,
	msg OutgoingMessage,
) (MessageRef, error) {
	channel, err := m.session.UserChannelCreate(userID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to open direct channel: %w", err)
	}
	channelID, err := snowflake.Parse(channel.ID)
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to parse channel id: %w", err)
	}
	return m.Send(ctx, channelID, msg)
}

// DiscordDirectory implements GuildDirectory using the session state cache and REST API.
type DiscordDirectory struct {
	session *discordgo.Session
}

// NewDiscordDirectory creates a new DiscordDirectory.
func NewDiscordDirectory(session *discordgo.Session) *DiscordDirectory {
	return &DiscordDirectory{session: session}
}

// GuildName returns the name of a guild.
func (d *DiscordDirectory) GuildName(ctx context.Context, guildID snowflake.ID) (string, error) {
	if guild, err := d.session.State.Guild(guildID.String()); err == nil {
		return guild.Name, nil
	}
	guild, err := d.session.Guild(guildID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch guild: %w", err)
	}
	return guild.Name, nil
}

func (d *DiscordDirectory) roles(ctx context.Context, guildID snowflake.ID) ([]*discordgo.Role, error) {
	if guild, err := d.session.State.Guild(guildID.String()); err == nil && len(guild.Roles) > 0 {
		return guild.Roles, nil
	}
	roles, err := d.session.GuildRoles(guildID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	return roles, nil
}

// FindRole resolves a role from an id, a role mention, or a case-insensitive name.
func (d *DiscordDirectory) FindRole(
	ctx context.Context,
	guildID snowflake.ID,
	query string,
) (Role, error) {
	roles, err := d.roles(ctx, guildID)
	if err != nil {
		return Role{}, err
	}

	query = strings.TrimSpace(query)
	idText := strings.TrimSuffix(strings.TrimPrefix(query, "<@&"), ">")
	for _, r := range roles {
		if r.ID == idText || strings.EqualFold(r.Name, query) {
			id, err := snowflake.Parse(r.ID)
			if err != nil {
				return Role{}, fmt.Errorf("failed to parse role id: %w", err)
			}
			return Role{ID: id, Name: r.Name}, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

// Role returns a role by id.
func (d *DiscordDirectory) Role(ctx context.Context, guildID, roleID snowflake.ID) (Role, error) {
	roles, err := d.roles(ctx, guildID)
	if err != nil {
		return Role{}, err
	}
	for _, r := range roles {
		if r.ID == roleID.String() {
			return Role{ID: roleID, Name: r.Name}, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

// MemberRoles returns the role ids of a guild member.
func (d *DiscordDirectory) MemberRoles(
	ctx context.Context,
	guildID, userID snowflake.ID,
) ([]snowflake.ID, error) {
	member, err := d.session.State.Member(guildID.String(), userID.String())
	if err != nil {
		member, err = d.session.GuildMember(guildID.String(), userID.String(), discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch member: %w", err)
		}
	}

	ids := make([]snowflake.ID, 0, len(member.Roles))
	for _, raw := range member.Roles {
		id, err := snowflake.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AddRole grants a role to a member.
func (d *DiscordDirectory) AddRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	err := d.session.GuildMemberRoleAdd(
		guildID.String(),
		userID.String(),
		roleID.String(),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}

// RemoveRole revokes a role from a member.
func (d *DiscordDirectory) RemoveRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	err := d.session.GuildMemberRoleRemove(
		guildID.String(),
		userID.String(),
		roleID.String(),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

// CanSend reports whether the bot user may send messages in the channel.
func (d *DiscordDirectory) CanSend(ctx context.Context, channelID snowflake.ID) (bool, error) {
	perms, err := d.session.State.UserChannelPermissions(d.session.State.User.ID, channelID.String())
	if err != nil {
		if errors.Is(err, discordgo.ErrStateNotFound) {
			return false, ErrChannelNotFound
		}
		return false, fmt.Errorf("failed to resolve channel permissions: %w", err)
	}
	required := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages)
	return perms&required == required, nil
}

// MessageExists reports whether the referenced message can be fetched.
func (d *DiscordDirectory) MessageExists(ctx context.Context, ref MessageRef) (bool, error) {
	_, err := d.session.ChannelMessage(ref.ChannelID.String(), ref.ID.String(), discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch message: %w", err)
	}
	return true, nil
}

// MessageReactions returns the API names of the emoji reacted on a message.
func (d *DiscordDirectory) MessageReactions(ctx context.Context, ref MessageRef) ([]string, error) {
	msg, err := d.session.ChannelMessage(ref.ChannelID.String(), ref.ID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	emoji := make([]string, 0, len(msg.Reactions))
	for _, r := range msg.Reactions {
		if r.Emoji != nil {
			emoji = append(emoji, r.Emoji.APIName())
		}
	}
	return emoji, nil
}

// ReactionAccess reports whether the bot may add and manage reactions in the channel.
func (d *DiscordDirectory) ReactionAccess(ctx context.Context, channelID snowflake.ID) (ReactionAccess, error) {
	perms, err := d.session.State.UserChannelPermissions(d.session.State.User.ID, channelID.String())
	if err != nil {
		if errors.Is(err, discordgo.ErrStateNotFound) {
			return ReactionAccess{}, ErrChannelNotFound
		}
		return ReactionAccess{}, fmt.Errorf("failed to resolve channel permissions: %w", err)
	}
	return ReactionAccess{
		CanAdd:    perms&discordgo.PermissionAddReactions != 0,
		CanManage: perms&discordgo.PermissionManageMessages != 0,
	}, nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == 404
}
