package discord

import "github.com/bwmarrin/discordgo"

var manageRoles int64 = discordgo.PermissionManageRoles

func linkOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

// Commands returns all slash commands for the reaction-roles module.
func Commands() []*discordgo.ApplicationCommand {
	dmPermission := false
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "reactionroles",
			Description:              "Manage the connections between message reactions and roles",
			DefaultMemberPermissions: &manageRoles,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List the messages in this server that have reaction/role configurations",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "config",
					Description: "Edit the reaction/role configuration of a message",
					Options: []*discordgo.ApplicationCommandOption{
						linkOption("message", "Link to the message"),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset",
					Description: "Wipe the reaction/role configuration of a message",
					Options: []*discordgo.ApplicationCommandOption{
						linkOption("message", "Link to the message"),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "copy",
					Description: "Copy the reaction/role configuration of one message to another",
					Options: []*discordgo.ApplicationCommandOption{
						linkOption("source", "Link to the message to copy from"),
						linkOption("destination", "Link to the message to copy to"),
					},
				},
			},
		},
	}
}
