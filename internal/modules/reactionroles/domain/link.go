package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// ErrInvalidLink is returned for text that is not a Discord message link.
var ErrInvalidLink = errors.New("not a message link")

var linkPattern = regexp.MustCompile(
	`^<?https?://(?:(?:ptb|canary)\.)?discord(?:app)?\.com/channels/(\d+)/(\d+)/(\d+)/?>?$`,
)

// MessageLink identifies a guild message by its jump URL.
type MessageLink struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// ParseMessageLink parses a message jump URL, optionally wrapped in angle brackets.
func ParseMessageLink(text string) (MessageLink, error) {
	m := linkPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return MessageLink{}, fmt.Errorf("%w: %q", ErrInvalidLink, text)
	}

	var (
		ids [3]snowflake.ID
		err error
	)
	for i := range ids {
		if ids[i], err = snowflake.Parse(m[i+1]); err != nil {
			return MessageLink{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
		}
	}
	return MessageLink{GuildID: ids[0], ChannelID: ids[1], MessageID: ids[2]}, nil
}

// URL returns the jump URL.
func (l MessageLink) URL() string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", l.GuildID, l.ChannelID, l.MessageID)
}

// Markdown returns the message id linked to the message.
func (l MessageLink) Markdown() string {
	return fmt.Sprintf("[%s](%s)", l.MessageID, l.URL())
}
