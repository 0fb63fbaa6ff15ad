package domain

import (
	"slices"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
)

// ConfirmationType selects how role changes are confirmed to members.
type ConfirmationType int

const (
	ConfirmationNone ConfirmationType = iota
	ConfirmationPrivate
	ConfirmationPublic
)

// String returns a human-readable representation of the confirmation type.
func (t ConfirmationType) String() string {
	switch t {
	case ConfirmationNone:
		return "none"
	case ConfirmationPrivate:
		return "private"
	case ConfirmationPublic:
		return "public"
	default:
		return "unknown"
	}
}

// Next cycles none → private → public → none.
func (t ConfirmationType) Next() ConfirmationType {
	return (t + 1) % 3
}

// Association grants a role to members who react with an emoji.
type Association struct {
	Emoji  string       `json:"emoji"`
	RoleID snowflake.ID `json:"role_id"`
}

// Config is the reaction-role configuration of one message.
type Config struct {
	Link                  MessageLink      `json:"link"`
	IsReactive            bool             `json:"is_reactive"`
	AllowMultiselect      bool             `json:"allow_multiselect"`
	AllowCancellation     bool             `json:"allow_cancellation"`
	ConfirmationType      ConfirmationType `json:"confirmation_type"`
	ConfirmationChannelID snowflake.ID     `json:"confirmation_channel_id"`
	// Associations keeps insertion order; emoji are unique.
	Associations []Association `json:"associations"`
}

// NewConfig returns the configuration a message starts with. Confirmations
// are private, with channelID preselected for public confirmations.
func NewConfig(link MessageLink, channelID snowflake.ID) Config {
	return Config{
		Link:                  link,
		IsReactive:            true,
		AllowMultiselect:      true,
		AllowCancellation:     true,
		ConfirmationType:      ConfirmationPrivate,
		ConfirmationChannelID: channelID,
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.Associations = slices.Clone(c.Associations)
	return c
}

// Equal reports whether two configurations are field-wise equal.
func Equal(a, b Config) bool {
	return a.Link == b.Link &&
		a.IsReactive == b.IsReactive &&
		a.AllowMultiselect == b.AllowMultiselect &&
		a.AllowCancellation == b.AllowCancellation &&
		a.ConfirmationType == b.ConfirmationType &&
		a.ConfirmationChannelID == b.ConfirmationChannelID &&
		slices.Equal(a.Associations, b.Associations)
}

// Lookup returns the association for an emoji.
func (c Config) Lookup(emoji string) (Association, bool) {
	i := c.index(emoji)
	if i < 0 {
		return Association{}, false
	}
	return c.Associations[i], true
}

func (c Config) index(emoji string) int {
	return slices.IndexFunc(c.Associations, func(a Association) bool {
		return gateway.SameEmoji(a.Emoji, emoji)
	})
}

// Upsert replaces the association with the same emoji in place, or appends a
// new one.
func (c *Config) Upsert(a Association) {
	if i := c.index(a.Emoji); i >= 0 {
		c.Associations[i] = a
		return
	}
	c.Associations = append(c.Associations, a)
}

// Remove deletes the association for an emoji and reports whether one existed.
func (c *Config) Remove(emoji string) (Association, bool) {
	i := c.index(emoji)
	if i < 0 {
		return Association{}, false
	}
	removed := c.Associations[i]
	c.Associations = slices.Delete(c.Associations, i, i+1)
	return removed, true
}

// Emoji returns the associated emoji in order.
func (c Config) Emoji() []string {
	emoji := make([]string, len(c.Associations))
	for i, a := range c.Associations {
		emoji[i] = a.Emoji
	}
	return emoji
}

// Summary is the per-guild listing entry of a configured message.
type Summary struct {
	Link  MessageLink
	Emoji []string
}
