package gateway

import (
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// Kind identifies the type of a gateway event.
type Kind int

const (
	KindMessage Kind = iota
	KindReactionAdd
	KindReactionRemove
	KindTyping
	KindMemberJoin
)

// String returns a human-readable representation of the event kind.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindReactionAdd:
		return "reaction_add"
	case KindReactionRemove:
		return "reaction_remove"
	case KindTyping:
		return "typing"
	case KindMemberJoin:
		return "member_join"
	default:
		return "unknown"
	}
}

// Event is a discrete occurrence delivered by the Bus.
type Event interface {
	Kind() Kind
	// Guild returns the guild the event happened in, or 0 for direct messages.
	Guild() snowflake.ID
}

// MessageEvent is published when a message is created.
type MessageEvent struct {
	ID              snowflake.ID
	ChannelID       snowflake.ID
	GuildID         snowflake.ID
	AuthorID        snowflake.ID
	AuthorBot       bool
	Content         string
	ChannelMentions []snowflake.ID
	RoleMentions    []snowflake.ID
}

func (e MessageEvent) Kind() Kind          { return KindMessage }
func (e MessageEvent) Guild() snowflake.ID { return e.GuildID }

// Ref returns a handle to the message.
func (e MessageEvent) Ref() MessageRef {
	return MessageRef{ChannelID: e.ChannelID, ID: e.ID}
}

// ReactionEvent is published when a reaction is added to or removed from a message.
type ReactionEvent struct {
	MessageID snowflake.ID
	ChannelID snowflake.ID
	GuildID   snowflake.ID
	UserID    snowflake.ID
	// UserBot is only known for added reactions.
	UserBot bool
	// Emoji is the API form of the emoji: the unicode text, or name:id for custom emoji.
	Emoji  string
	Custom bool
	Added  bool
}

func (e ReactionEvent) Kind() Kind {
	if e.Added {
		return KindReactionAdd
	}
	return KindReactionRemove
}

func (e ReactionEvent) Guild() snowflake.ID { return e.GuildID }

// TypingEvent is published when a user starts typing in a channel.
type TypingEvent struct {
	ChannelID snowflake.ID
	GuildID   snowflake.ID
	UserID    snowflake.ID
}

func (e TypingEvent) Kind() Kind          { return KindTyping }
func (e TypingEvent) Guild() snowflake.ID { return e.GuildID }

// MemberJoinEvent is published when a member joins a guild.
type MemberJoinEvent struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	Bot     bool
}

func (e MemberJoinEvent) Kind() Kind          { return KindMemberJoin }
func (e MemberJoinEvent) Guild() snowflake.ID { return e.GuildID }

// NormalizeEmoji strips variation selectors so that "🛠️" and "🛠" compare equal.
func NormalizeEmoji(emoji string) string {
	return strings.ReplaceAll(emoji, "\ufe0f", "")
}

// SameEmoji reports whether two emoji strings denote the same emoji.
func SameEmoji(a, b string) bool {
	return NormalizeEmoji(a) == NormalizeEmoji(b)
}
