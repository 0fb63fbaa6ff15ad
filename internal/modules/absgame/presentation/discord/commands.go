package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the abs game module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "abs",
			Description: "Start an ab calling game in this channel",
		},
	}
}
