package reactionroles

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/application/usecases"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/infrastructure"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/presentation/discord"
	"github.com/sglre6355/cirquebot/internal/storage/cache"
)

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*ReactionRolesModule)(nil)

const (
	defaultSessionTimeout = 180 * time.Second
	defaultCacheTTL       = 10 * time.Minute
)

// ReactionRolesModule grants roles for message reactions and provides the
// /reactionroles command.
type ReactionRolesModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	eventHandlers   *discord.EventHandlers
	cache           *cache.Cache[[]domain.Config]
	queue           *infrastructure.ReactionQueue

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the module.
func New() *ReactionRolesModule {
	return &ReactionRolesModule{}
}

// Name returns the module name.
func (m *ReactionRolesModule) Name() string {
	return "reactionroles"
}

// Commands returns the slash commands for this module.
func (m *ReactionRolesModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *ReactionRolesModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"reactionroles": m.commandHandlers.HandleReactionRoles,
	}
}

// Subscriptions returns the reaction subscriptions.
func (m *ReactionRolesModule) Subscriptions() []bot.Subscription {
	return []bot.Subscription{
		{Kind: gateway.KindReactionAdd, Handler: m.eventHandlers.HandleReaction},
		{Kind: gateway.KindReactionRemove, Handler: m.eventHandlers.HandleReaction},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *ReactionRolesModule) LoadConfig() error {
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
func (m *ReactionRolesModule) Init(deps bot.ModuleDependencies) error {
	if deps.Messenger == nil || deps.Guilds == nil || deps.Waiter == nil || deps.Sessions == nil {
		return errors.New("reactionroles module requires the gateway and a session registry")
	}
	if deps.Store == nil {
		return errors.New("reactionroles module requires a database")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	parent := deps.Context
	if parent == nil {
		parent = context.Background()
	}
	m.ctx, m.cancel = context.WithCancel(parent)

	sessionTimeout, cacheTTL := defaultSessionTimeout, defaultCacheTTL
	if deps.Config != nil {
		sessionTimeout, cacheTTL = deps.Config.SessionTimeout, deps.Config.ConfigCacheTTL
	}

	configCache, err := cache.New[[]domain.Config](m.ctx, cacheTTL)
	if err != nil {
		return err
	}
	m.cache = configCache

	configs := usecases.NewConfigService(
		infrastructure.NewSQLiteRepository(deps.Store), configCache, deps.Messenger, deps.Guilds, deps.SelfID,
	)
	sessions := usecases.NewSessionService(
		configs, deps.Sessions, deps.Messenger, deps.Waiter, deps.Guilds, sessionTimeout,
	)
	assigner := usecases.NewRoleAssigner(configs, deps.Messenger, deps.Guilds)
	m.queue = infrastructure.NewReactionQueue(m.ctx, m.config.QueueSize, assigner.Handle)

	m.commandHandlers = discord.NewCommandHandlers(m.ctx, configs, sessions)
	m.eventHandlers = discord.NewEventHandlers(m.queue, deps.SelfID)

	slog.Info("reactionroles module initialized", "queue_size", m.config.QueueSize, "cache_ttl", cacheTTL)
	return nil
}

// Shutdown ends running sessions and stops applying reactions.
func (m *ReactionRolesModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.queue != nil {
		m.queue.Close()
	}
	if m.cache != nil {
		return m.cache.Close()
	}
	return nil
}
