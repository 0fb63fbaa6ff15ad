package discord

import "github.com/bwmarrin/discordgo"

var manageGuild int64 = discordgo.PermissionManageServer

// Commands returns all slash commands for the greetings module.
func Commands() []*discordgo.ApplicationCommand {
	dmPermission := false
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "greetings",
			Description:              "Configure the messages sent to new members",
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "config",
					Description: "Edit the greeting configuration for this server",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "demo",
					Description: "Preview the greetings as if you just joined",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset",
					Description: "Delete the greeting configuration for this server",
				},
			},
		},
	}
}
