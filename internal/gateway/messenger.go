package gateway

import (
	"context"
	"io"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// MessageRef identifies a sent message.
type MessageRef struct {
	ChannelID snowflake.ID
	ID        snowflake.ID
}

// IsZero reports whether the reference points at nothing.
func (r MessageRef) IsZero() bool {
	return r.ID == 0
}

// Attachment is a file uploaded together with a message.
type Attachment struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// OutgoingMessage is the content of a message to send or edit.
type OutgoingMessage struct {
	Content     string
	Embed       *discordgo.MessageEmbed
	Attachments []Attachment
}

// Messenger sends and manipulates chat messages.
type Messenger interface {
	Send(ctx context.Context, channelID snowflake.ID, msg OutgoingMessage) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, msg OutgoingMessage) error
	// Delete removes the given messages, bulk-deleting where possible.
	Delete(ctx context.Context, refs ...MessageRef) error
	AddReaction(ctx context.Context, ref MessageRef, emoji string) error
	ClearReactions(ctx context.Context, ref MessageRef) error
	// ClearEmojiReactions removes every user's reaction with one emoji.
	ClearEmojiReactions(ctx context.Context, ref MessageRef, emoji string) error
	RemoveUserReaction(ctx context.Context, ref MessageRef, emoji string, userID snowflake.ID) error
	// SendDirect sends a direct message to a user.
	SendDirect(ctx context.Context, userID snowflake.ID, msg OutgoingMessage) (MessageRef, error)
}

// Role is a guild role.
type Role struct {
	ID   snowflake.ID
	Name string
}

// Mention returns the role mention markup.
func (r Role) Mention() string {
	return "<@&" + r.ID.String() + ">"
}

// GuildDirectory looks up and mutates guild state.
type GuildDirectory interface {
	GuildName(ctx context.Context, guildID snowflake.ID) (string, error)
	// FindRole resolves a role by id, mention or case-insensitive name.
	FindRole(ctx context.Context, guildID snowflake.ID, query string) (Role, error)
	Role(ctx context.Context, guildID, roleID snowflake.ID) (Role, error)
	MemberRoles(ctx context.Context, guildID, userID snowflake.ID) ([]snowflake.ID, error)
	AddRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error
	RemoveRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error
	// CanSend reports whether the bot can post in the channel.
	CanSend(ctx context.Context, channelID snowflake.ID) (bool, error)
	// MessageExists reports whether a message exists in the channel.
	MessageExists(ctx context.Context, ref MessageRef) (bool, error)
	// MessageReactions returns the emoji currently reacted on a message.
	MessageReactions(ctx context.Context, ref MessageRef) ([]string, error)
	// ReactionAccess reports what the bot may do with reactions in the channel.
	ReactionAccess(ctx context.Context, channelID snowflake.ID) (ReactionAccess, error)
}

// ReactionAccess holds the bot's reaction permissions in a channel.
type ReactionAccess struct {
	CanAdd    bool
	CanManage bool
}
