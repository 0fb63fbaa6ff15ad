package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/usecases"
)

const textGreetingNone = "**%s** is not currently configured to send any greetings."

// CommandHandlers holds the greetings command handlers.
type CommandHandlers struct {
	// ctx bounds the lifetime of configuration sessions.
	ctx      context.Context
	configs  *usecases.ConfigService
	sessions *usecases.SessionService
	greeter  *usecases.Greeter
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	ctx context.Context,
	configs *usecases.ConfigService,
	sessions *usecases.SessionService,
	greeter *usecases.Greeter,
) *CommandHandlers {
	return &CommandHandlers{
		ctx:      ctx,
		configs:  configs,
		sessions: sessions,
		greeter:  greeter,
	}
}

// HandleGreetings dispatches the /greetings subcommands.
func (h *CommandHandlers) HandleGreetings(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	if i.GuildID == "" {
		return bot.RespondEmbed(r, embeds.Errorf("Greetings can only be configured in a server."), true)
	}
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return bot.RespondEmbed(r, embeds.Errorf("Invalid server"), true)
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return bot.RespondEmbed(r, embeds.Errorf("Invalid channel"), true)
	}
	userID, err := bot.InteractionUserID(i)
	if err != nil {
		return bot.RespondEmbed(r, embeds.Errorf("Invalid user"), true)
	}

	name, _ := bot.Subcommand(i)
	switch name {
	case "config":
		return h.config(r, guildID, channelID, userID)
	case "demo":
		return h.demo(r, guildID, channelID, userID)
	case "reset":
		return h.reset(r, guildID)
	default:
		return bot.RespondEmbed(r, embeds.Errorf("Unknown subcommand"), true)
	}
}

func (h *CommandHandlers) config(r bot.Responder, guildID, channelID, userID snowflake.ID) error {
	_, err := h.sessions.Start(h.ctx, usecases.StartSessionInput{
		GuildID:   guildID,
		ChannelID: channelID,
		OwnerID:   userID,
	})
	switch {
	case errors.Is(err, usecases.ErrSessionActive):
		return bot.RespondEmbed(r, embeds.Errorf(
			"Sorry <@%s>, someone else is already editing the greetings. Please wait a little bit.", userID,
		), false)
	case err != nil:
		slog.Error("failed to start greeting configuration", "guild_id", guildID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}
	return bot.RespondEmbed(r, embeds.Basic("Greeting configuration started.", embeds.Success), true)
}

func (h *CommandHandlers) demo(r bot.Responder, guildID, channelID, userID snowflake.ID) error {
	output, err := h.greeter.Demo(context.Background(), usecases.DemoInput{
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    userID,
	})
	if err != nil {
		slog.Error("failed to demo greetings", "guild_id", guildID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}

	if output.Public != "" {
		data := &discordgo.InteractionResponseData{Content: output.Public}
		if note := demoNote(output); note != nil {
			data.Embeds = []*discordgo.MessageEmbed{note}
		}
		return r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	}
	if output.PrivateSent {
		return bot.RespondEmbed(r, embeds.Basic("The private greeting was sent to your DMs.", embeds.Success), true)
	}
	return bot.RespondEmbed(r, embeds.Basicf(embeds.Warning, textGreetingNone, output.GuildName), false)
}

func demoNote(output *usecases.DemoOutput) *discordgo.MessageEmbed {
	switch output.PublicTarget {
	case usecases.TargetMissing:
		return embeds.Errorf("Please re-run `/greetings config` to select a valid greeting channel.")
	case usecases.TargetUnwritable:
		return embeds.Errorf(
			"The above message should be sent to the <#%s> channel, but I don't have permission to post in there!",
			output.PublicChannelID,
		)
	case usecases.TargetOtherChannel:
		return embeds.Basic(fmt.Sprintf(
			"The above message will be sent to <#%s> (without this note, and with the correct user tagged if applicable) when a new member joins this server.",
			output.PublicChannelID,
		), embeds.Success)
	default:
		return nil
	}
}

func (h *CommandHandlers) reset(r bot.Responder, guildID snowflake.ID) error {
	output, err := h.configs.Reset(context.Background(), guildID)
	if err != nil {
		slog.Error("failed to reset greetings", "guild_id", guildID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}
	if !output.Deleted {
		return bot.RespondEmbed(r, embeds.Basicf(embeds.Warning, textGreetingNone, output.GuildName), false)
	}
	return bot.RespondEmbed(r, embeds.Basicf(
		embeds.Success, "Deleted greeting configuration for **%s**.", output.GuildName,
	), false)
}
