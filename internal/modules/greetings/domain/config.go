package domain

import (
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// Placeholders replaced when a greeting is sent.
const (
	UserPlaceholder   = "<user>"
	ServerPlaceholder = "<server>"
)

// Config is the greeting configuration of one guild. The zero value sends nothing.
type Config struct {
	PublicChannelID snowflake.ID `json:"public_channel_id"`
	PublicMessage   string       `json:"public_message"`
	PrivateMessage  string       `json:"private_message"`
}

// PublicActive reports whether a public greeting is posted on join.
func (c Config) PublicActive() bool {
	return c.PublicMessage != "" && c.PublicChannelID != 0
}

// PrivateActive reports whether a private greeting is sent on join.
func (c Config) PrivateActive() bool {
	return c.PrivateMessage != ""
}

// IsZero reports whether nothing is configured.
func (c Config) IsZero() bool {
	return c == Config{}
}

// Equal compares two configurations field by field.
func Equal(a, b Config) bool {
	return a == b
}

// Format fills the placeholders of a greeting message.
func Format(message, userMention, serverName string) string {
	return strings.NewReplacer(
		UserPlaceholder, userMention,
		ServerPlaceholder, serverName,
	).Replace(message)
}
