package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/application/usecases"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
)

// CommandHandlers holds the reaction-roles command handlers.
type CommandHandlers struct {
	// ctx bounds the lifetime of configuration sessions.
	ctx      context.Context
	configs  *usecases.ConfigService
	sessions *usecases.SessionService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	ctx context.Context,
	configs *usecases.ConfigService,
	sessions *usecases.SessionService,
) *CommandHandlers {
	return &CommandHandlers{
		ctx:      ctx,
		configs:  configs,
		sessions: sessions,
	}
}

type request struct {
	guildID   snowflake.ID
	channelID snowflake.ID
	userID    snowflake.ID
	options   map[string]string
}

// HandleReactionRoles dispatches the /reactionroles subcommands.
func (h *CommandHandlers) HandleReactionRoles(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	if i.GuildID == "" {
		return bot.RespondEmbed(r, embeds.Errorf("Reaction roles can only be configured in a server."), true)
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

	name, options := bot.Subcommand(i)
	req := request{
		guildID:   guildID,
		channelID: channelID,
		userID:    userID,
		options:   make(map[string]string, len(options)),
	}
	for _, opt := range options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			req.options[opt.Name] = opt.StringValue()
		}
	}

	switch name {
	case "list":
		return h.list(r, req)
	case "config":
		return h.config(r, req)
	case "reset":
		return h.reset(r, req)
	case "copy":
		return h.copy(r, req)
	default:
		return bot.RespondEmbed(r, embeds.Errorf("Unknown subcommand"), true)
	}
}

func (h *CommandHandlers) list(r bot.Responder, req request) error {
	output, err := h.configs.ListMessages(context.Background(), req.guildID)
	if err != nil {
		slog.Error("failed to list reaction roles", "guild_id", req.guildID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}
	return bot.RespondEmbed(r, ListEmbed(output), false)
}

// ListEmbed renders the configured messages of a guild as a table.
func ListEmbed(output *usecases.ListOutput) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: `Reaction/Role Messages in "` + output.GuildName + `"`,
		Color: embeds.ColorDefault,
	}
	if len(output.Messages) == 0 {
		embed.Description = "*No messages in this server have a reaction/role configuration.*"
		return embed
	}

	channels := make([]string, len(output.Messages))
	messages := make([]string, len(output.Messages))
	reactions := make([]string, len(output.Messages))
	for i, m := range output.Messages {
		channels[i] = "<#" + m.Link.ChannelID.String() + ">"
		messages[i] = "**" + m.Link.Markdown() + "**"
		reactions[i] = strings.Join(m.Emoji, " \u200b ")
		if reactions[i] == "" {
			reactions[i] = "-"
		}
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Channel", Value: strings.Join(channels, "\n"), Inline: true},
		{Name: "Message", Value: strings.Join(messages, "\n"), Inline: true},
		{Name: "Available Reactions", Value: strings.Join(reactions, "\n"), Inline: true},
	}
	return embed
}

func (h *CommandHandlers) config(r bot.Responder, req request) error {
	link, ok := parseLink(req.options["message"])
	if !ok {
		return respondInvalidLink(r)
	}

	_, err := h.sessions.Start(h.ctx, usecases.StartSessionInput{
		GuildID:   req.guildID,
		ChannelID: req.channelID,
		OwnerID:   req.userID,
		Link:      link,
	})
	switch {
	case errors.Is(err, usecases.ErrSessionActive):
		return bot.RespondEmbed(r, embeds.Errorf(
			"Sorry <@%s>, someone else is already editing reaction roles. Please wait a little bit.", req.userID,
		), false)
	case err != nil:
		if embed := validationEmbed(err); embed != nil {
			return bot.RespondEmbed(r, embed, true)
		}
		slog.Error("failed to start reaction-role configuration", "guild_id", req.guildID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}
	return bot.RespondEmbed(r, embeds.Basic("Reaction/role configuration started.", embeds.Success), true)
}

func (h *CommandHandlers) reset(r bot.Responder, req request) error {
	link, ok := parseLink(req.options["message"])
	if !ok {
		return respondInvalidLink(r)
	}

	deleted, err := h.configs.Reset(context.Background(), req.guildID, link)
	if err != nil {
		if embed := validationEmbed(err); embed != nil {
			return bot.RespondEmbed(r, embed, true)
		}
		slog.Error("failed to reset reaction roles", "guild_id", req.guildID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}
	if !deleted {
		return bot.RespondEmbed(r, embeds.Basicf(
			embeds.Warning, "Message **%s** does not have a reaction/role configuration.", link.Markdown(),
		), false)
	}
	return bot.RespondEmbed(r, embeds.Basicf(
		embeds.Success, "Deleted reaction/role configuration for message **%s**.", link.Markdown(),
	), false)
}

func (h *CommandHandlers) copy(r bot.Responder, req request) error {
	src, ok := parseLink(req.options["source"])
	if !ok {
		return respondInvalidLink(r)
	}
	dst, ok := parseLink(req.options["destination"])
	if !ok {
		return respondInvalidLink(r)
	}

	err := h.configs.Copy(context.Background(), req.guildID, src, dst)
	switch {
	case errors.Is(err, usecases.ErrNotConfigured):
		return bot.RespondEmbed(r, embeds.Basicf(
			embeds.Warning, "Message **%s** does not have a reaction/role configuration.", src.Markdown(),
		), true)
	case err != nil:
		if embed := validationEmbed(err); embed != nil {
			return bot.RespondEmbed(r, embed, true)
		}
		slog.Error("failed to copy reaction roles", "guild_id", req.guildID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}
	return bot.RespondEmbed(r, embeds.Basicf(
		embeds.Success, "Copied reaction/role configuration from message **%s** to message **%s**.",
		src.Markdown(), dst.Markdown(),
	), false)
}

func parseLink(text string) (domain.MessageLink, bool) {
	link, err := domain.ParseMessageLink(text)
	return link, err == nil
}

func respondInvalidLink(r bot.Responder) error {
	return bot.RespondEmbed(r, embeds.Errorf("That doesn't look like a message link!"), true)
}

// validationEmbed maps message validation errors to user-facing text.
func validationEmbed(err error) *discordgo.MessageEmbed {
	switch {
	case errors.Is(err, usecases.ErrMessageNotFound), errors.Is(err, usecases.ErrForeignMessage):
		return embeds.Errorf("I couldn't find that message!")
	case errors.Is(err, usecases.ErrCannotAddReactions):
		return embeds.Errorf("I'm not allowed to add reactions in that channel!")
	case errors.Is(err, usecases.ErrCannotManageMessages):
		return embeds.Errorf("I'm not allowed to manage messages in that channel!")
	default:
		return nil
	}
}
