package absgame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/usecases"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/infrastructure"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/presentation/discord"
)

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*AbsGameModule)(nil)

// AbsGameModule provides the /abs elimination game.
type AbsGameModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the module.
func New() *AbsGameModule {
	return &AbsGameModule{}
}

// Name returns the module name.
func (m *AbsGameModule) Name() string {
	return "absgame"
}

// Commands returns the slash commands for this module.
func (m *AbsGameModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *AbsGameModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"abs": m.commandHandlers.HandleAbs,
	}
}

// Subscriptions returns nothing: running games receive their input through
// the session registry.
func (m *AbsGameModule) Subscriptions() []bot.Subscription {
	return nil
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *AbsGameModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *AbsGameModule) Init(deps bot.ModuleDependencies) error {
	if deps.Messenger == nil || deps.Sessions == nil {
		return errors.New("absgame module requires a messenger and a session registry")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	table, err := loadTable(m.config.TargetsFile)
	if err != nil {
		return err
	}
	if m.config.Flashes > table.Len() {
		return fmt.Errorf("ABS_GAME_FLASHES is %d but the target table has %d targets", m.config.Flashes, table.Len())
	}

	parent := deps.Context
	if parent == nil {
		parent = context.Background()
	}
	m.ctx, m.cancel = context.WithCancel(parent)

	channels := make([]snowflake.ID, len(m.config.ChannelIDs))
	for i, id := range m.config.ChannelIDs {
		channels[i] = snowflake.ID(id)
	}

	games := usecases.NewGameService(
		deps.Sessions,
		deps.Messenger,
		infrastructure.NewGIFRenderer(table, infrastructure.DefaultFrameTiming()),
		infrastructure.NewAnnouncer(deps.Messenger),
		table,
		usecases.Settings{
			Timing: usecases.Timing{
				LobbyInterval: m.config.LobbyInterval,
				LobbyUpdates:  m.config.LobbyUpdates,
				RoundInterval: m.config.RoundInterval,
			},
			Flashes:            m.config.Flashes,
			Channels:           channels,
			TypingDisqualifies: m.config.TypingDisqualifies,
		},
	)
	m.commandHandlers = discord.NewCommandHandlers(m.ctx, games)

	if m.config.TypingDisqualifies {
		slog.Info("absgame module initialized", "early_input", "typing and messages", "targets", table.Len())
	} else {
		slog.Info("absgame module initialized", "early_input", "messages only", "targets", table.Len())
	}
	return nil
}

func loadTable(path string) (*domain.Table, error) {
	if path == "" {
		return domain.DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target table: %w", err)
	}
	return domain.ParseTable(data)
}

// Shutdown stops every running game.
func (m *AbsGameModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}
