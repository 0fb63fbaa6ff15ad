// Package embeds builds the message embeds shared by all modules.
package embeds

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/enescakir/emoji"
)

// Embed colors.
const (
	ColorDefault = 0x9B59B6
	ColorSuccess = 0x08c404
	ColorError   = 0xE74C3C
)

// Spacer separates a leading emoji from the text that follows it.
const Spacer = " \u200b \u200b "

// Common status emoji.
var (
	Success = emoji.CheckMarkButton.String()
	Error   = emoji.CrossMark.String()
	Warning = emoji.WhiteQuestionMark.String()
)

// Basic builds a single-paragraph embed, optionally prefixed with an emoji.
func Basic(text, prefix string) *discordgo.MessageEmbed {
	description := text
	if prefix != "" {
		description = prefix + Spacer + text
	}
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       ColorDefault,
	}
}

// Basicf is Basic with a format string.
func Basicf(prefix, format string, args ...any) *discordgo.MessageEmbed {
	return Basic(fmt.Sprintf(format, args...), prefix)
}

// Errorf builds an error embed.
func Errorf(format string, args ...any) *discordgo.MessageEmbed {
	embed := Basic(fmt.Sprintf(format, args...), Error)
	embed.Color = ColorError
	return embed
}

// Apology is shown when something unexpected went wrong.
func Apology() *discordgo.MessageEmbed {
	return Errorf("Something went wrong on my end. Sorry about that!")
}

// Option formats one line of a reaction menu.
func Option(emojiText, description string) string {
	return "\n" + Spacer + emojiText + " = " + description
}
