package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
	"github.com/sglre6355/cirquebot/internal/session"
)

// Settings holds the tunable parts of a game.
type Settings struct {
	Timing  Timing
	Flashes int
	// Channels limits games to the listed channels. Empty allows every channel.
	Channels           []snowflake.ID
	TypingDisqualifies bool
}

// GameService starts games.
type GameService struct {
	registry  *session.Registry
	messenger gateway.Messenger
	renderer  ports.Renderer
	announcer ports.Announcer
	table     *domain.Table
	settings  Settings

	// newRand seeds the target selection of each game.
	newRand func() *rand.Rand
}

// NewGameService creates a new GameService.
func NewGameService(
	registry *session.Registry,
	messenger gateway.Messenger,
	renderer ports.Renderer,
	announcer ports.Announcer,
	table *domain.Table,
	settings Settings,
) *GameService {
	return &GameService{
		registry:  registry,
		messenger: messenger,
		renderer:  renderer,
		announcer: announcer,
		table:     table,
		settings:  settings,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

// StartGameInput contains the input for the Start use case.
type StartGameInput struct {
	ChannelID snowflake.ID
	StarterID snowflake.ID
}

// Start opens a lobby in the channel and runs the game in the background.
// The game's lifetime is bound to ctx.
func (g *GameService) Start(ctx context.Context, input StartGameInput) (*GameSession, error) {
	logger := slog.With("channel_id", input.ChannelID.String(), "user_id", input.StarterID.String())

	if len(g.settings.Channels) > 0 && !slices.Contains(g.settings.Channels, input.ChannelID) {
		logger.Debug("ignored game request outside allowed channels")
		return nil, ErrChannelNotAllowed
	}

	game := NewGameSession(ctx, GameOptions{
		ChannelID:          input.ChannelID,
		StarterID:          input.StarterID,
		Pool:               g.table.All(),
		Flashes:            g.settings.Flashes,
		Rand:               g.newRand(),
		Timing:             g.settings.Timing,
		TypingDisqualifies: g.settings.TypingDisqualifies,
		Registry:           g.registry,
		Messenger:          g.messenger,
		Renderer:           g.renderer,
		Announcer:          g.announcer,
	})

	if !g.registry.TryRegister(game) {
		logger.Info("rejected game request while another game is active")
		game.Finish(session.OutcomeCancelled, nil)
		return nil, fmt.Errorf("%w: %w", ErrGameInProgress, session.ErrSessionConflict)
	}

	go game.Run()
	return game, nil
}
