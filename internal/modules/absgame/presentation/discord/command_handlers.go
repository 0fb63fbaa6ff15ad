package discord

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/usecases"
)

// CommandHandlers holds the abs game command handlers.
type CommandHandlers struct {
	// ctx bounds the lifetime of every game started through the handlers.
	ctx   context.Context
	games *usecases.GameService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(ctx context.Context, games *usecases.GameService) *CommandHandlers {
	return &CommandHandlers{
		ctx:   ctx,
		games: games,
	}
}

// HandleAbs handles the /abs command.
func (h *CommandHandlers) HandleAbs(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return bot.RespondEmbed(r, embeds.Errorf("Invalid channel"), true)
	}
	userID, err := bot.InteractionUserID(i)
	if err != nil {
		return bot.RespondEmbed(r, embeds.Errorf("Invalid user"), true)
	}

	_, err = h.games.Start(h.ctx, usecases.StartGameInput{
		ChannelID: channelID,
		StarterID: userID,
	})
	switch {
	case errors.Is(err, usecases.ErrChannelNotAllowed):
		return bot.RespondEmbed(r, embeds.Errorf("Ab calling games can't be played in this channel."), true)
	case errors.Is(err, usecases.ErrGameInProgress):
		return bot.RespondEmbed(r, embeds.Errorf(
			"Sorry <@%s>, I'm too busy right now! Please wait a little bit.", userID,
		), false)
	case err != nil:
		slog.Error("failed to start abs game", "channel_id", channelID.String(), "error", err)
		return bot.RespondEmbed(r, embeds.Apology(), true)
	}

	return bot.RespondEmbed(r, embeds.Basic("The lobby is open!", embeds.Success), true)
}
