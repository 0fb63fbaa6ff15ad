package bot

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// ErrNoInteractionUser is returned for interactions without an invoking user.
var ErrNoInteractionUser = errors.New("interaction has no user")

// InteractionUserID returns the ID of the user who invoked the interaction,
// whether it came from a guild or a direct message.
func InteractionUserID(i *discordgo.InteractionCreate) (snowflake.ID, error) {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return snowflake.Parse(i.Member.User.ID)
	case i.User != nil:
		return snowflake.Parse(i.User.ID)
	default:
		return 0, ErrNoInteractionUser
	}
}

// Subcommand returns the invoked subcommand and its options.
func Subcommand(i *discordgo.InteractionCreate) (string, []*discordgo.ApplicationCommandInteractionDataOption) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 || options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", options
	}
	return options[0].Name, options[0].Options
}
