package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/session"
	"github.com/sglre6355/cirquebot/internal/storage/sqlite"
)

// InteractionHandler handles a Discord interaction and returns a response.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// Subscription binds a handler to one kind of gateway event.
// Handlers run on the bus dispatcher and must not block for long.
type Subscription struct {
	Kind    gateway.Kind
	Handler gateway.Handler
}

// ModuleDependencies provides dependencies that modules may need during initialization.
type ModuleDependencies struct {
	// Context is cancelled when the bot stops.
	Context context.Context
	Session *discordgo.Session
	Config  *Config
	SelfID  snowflake.ID

	Messenger gateway.Messenger
	Guilds    gateway.GuildDirectory
	Waiter    gateway.Waiter
	Sessions  *session.Registry
	Store     *sqlite.Store
}

// Module defines the interface that all bot modules must implement.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Commands returns the slash commands that this module provides.
	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers returns a map of command names to their handlers.
	CommandHandlers() map[string]InteractionHandler

	// Subscriptions returns the gateway events this module listens to.
	Subscriptions() []Subscription

	// Init initializes the module with the provided dependencies.
	Init(deps ModuleDependencies) error

	// Shutdown gracefully shuts down the module.
	Shutdown() error
}

// ConfigurableModule is an optional interface for modules that need configuration.
// Modules implementing this interface will have LoadConfig called before Init.
type ConfigurableModule interface {
	// LoadConfig loads and validates module-specific configuration.
	// Called before Init() and before Discord connection is established.
	// Should return an error if required configuration is missing or invalid.
	LoadConfig() error
}
