package greetings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/usecases"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/infrastructure"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/presentation/discord"
	"github.com/sglre6355/cirquebot/internal/storage/cache"
)

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*GreetingsModule)(nil)

// Fallbacks for dependencies built without a bot configuration.
const (
	defaultSessionTimeout = 180 * time.Second
	defaultCacheTTL       = 10 * time.Minute
)

// GreetingsModule greets new members and provides the /greetings command.
type GreetingsModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	eventHandlers   *discord.EventHandlers
	cache           *cache.Cache[domain.Config]

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the module.
func New() *GreetingsModule {
	return &GreetingsModule{}
}

// Name returns the module name.
func (m *GreetingsModule) Name() string {
	return "greetings"
}

// Commands returns the slash commands for this module.
func (m *GreetingsModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *GreetingsModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"greetings": m.commandHandlers.HandleGreetings,
	}
}

// Subscriptions returns the member join subscription.
func (m *GreetingsModule) Subscriptions() []bot.Subscription {
	return []bot.Subscription{
		{Kind: gateway.KindMemberJoin, Handler: m.eventHandlers.HandleMemberJoin},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *GreetingsModule) LoadConfig() error {
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
func (m *GreetingsModule) Init(deps bot.ModuleDependencies) error {
	if deps.Messenger == nil || deps.Guilds == nil || deps.Waiter == nil || deps.Sessions == nil {
		return errors.New("greetings module requires the gateway and a session registry")
	}
	if deps.Store == nil {
		return errors.New("greetings module requires a database")
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

	configCache, err := cache.New[domain.Config](m.ctx, cacheTTL)
	if err != nil {
		return err
	}
	m.cache = configCache

	configs := usecases.NewConfigService(infrastructure.NewSQLiteRepository(deps.Store), configCache, deps.Guilds)
	sessions := usecases.NewSessionService(
		configs, deps.Sessions, deps.Messenger, deps.Waiter, deps.Guilds, sessionTimeout,
	)
	greeter := usecases.NewGreeter(configs, deps.Messenger, deps.Guilds, m.config.Delay)

	m.commandHandlers = discord.NewCommandHandlers(m.ctx, configs, sessions, greeter)
	m.eventHandlers = discord.NewEventHandlers(m.ctx, greeter)

	slog.Info("greetings module initialized", "delay", m.config.Delay, "cache_ttl", cacheTTL)
	return nil
}

// Shutdown ends running sessions and pending greetings.
func (m *GreetingsModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.cache != nil {
		return m.cache.Close()
	}
	return nil
}
