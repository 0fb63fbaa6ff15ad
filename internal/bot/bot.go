package bot

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	goerrors "github.com/go-errors/errors"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/session"
	"github.com/sglre6355/cirquebot/internal/storage/sqlite"
)

// Intents are the gateway intents the bot needs. Typing indicators require
// IntentsGuildMessageTyping and message text requires IntentsMessageContent.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsGuildMessageTyping |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	handlers map[string]InteractionHandler

	store    *sqlite.Store
	bus      *gateway.Bus
	sessions *session.Registry
	selfID   snowflake.ID

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]InteractionHandler),
		sessions: session.NewRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// LoadModules loads the modules of the registry and their configuration.
func (b *Bot) LoadModules(registry *Registry) error {
	if err := registry.LoadConfigs(); err != nil {
		return err
	}
	b.modules = registry.Modules()
	return nil
}

// Start opens storage, connects to Discord, initializes modules and registers commands.
func (b *Bot) Start() error {
	store, err := sqlite.Open(b.config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	b.store = store

	// Create Discord session
	dg, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = Intents
	b.session = dg

	b.bus = gateway.NewBus(b.config.EventBufferSize)
	b.bus.Intercept(b.sessions.Route)

	// Open connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	selfID, err := snowflake.Parse(b.session.State.User.ID)
	if err != nil {
		return fmt.Errorf("failed to parse bot user id: %w", err)
	}
	b.selfID = selfID

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build handler map
	b.buildHandlerMap()

	// Register interaction handler
	b.session.AddHandler(b.handleInteraction)

	// Route gateway events through the bus
	b.registerSubscriptions()
	source := gateway.NewDiscordSource(b.bus, b.selfID)
	for _, handler := range source.Handlers() {
		b.session.AddHandler(handler)
	}

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
		"database", b.config.DatabasePath,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// End active sessions
	b.cancel()

	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	if b.bus != nil {
		b.bus.Close()
	}

	var closeErr error
	// Close Discord session
	if b.session != nil {
		closeErr = b.session.Close()
	}

	if b.store != nil {
		if err := b.store.Close(); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}

	return closeErr
}

// dependencies returns what modules are initialized with.
func (b *Bot) dependencies() ModuleDependencies {
	deps := ModuleDependencies{
		Context:  b.ctx,
		Session:  b.session,
		Config:   b.config,
		SelfID:   b.selfID,
		Sessions: b.sessions,
		Store:    b.store,
	}
	if b.bus != nil {
		deps.Waiter = b.bus
	}
	if b.session != nil {
		deps.Messenger = gateway.NewDiscordMessenger(b.session)
		deps.Guilds = gateway.NewDiscordDirectory(b.session)
	}
	return deps
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := b.dependencies()

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the command name to handler mapping.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		maps.Copy(b.handlers, mod.CommandHandlers())
	}
}

// registerSubscriptions subscribes all module handlers to the bus.
func (b *Bot) registerSubscriptions() {
	for _, mod := range b.modules {
		for _, sub := range mod.Subscriptions() {
			b.bus.Subscribe(sub.Kind, sub.Handler)
			slog.Debug("subscribed module", "module", mod.Name(), "kind", sub.Kind.String())
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands registers all module commands with Discord.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string registers commands globally
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		slog.Debug("registered command", "command", cmd.Name)
	}

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming interactions to the appropriate handler.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	handler, ok := b.handlers[cmdName]
	if !ok {
		slog.Warn("found no handler for command", "command", cmdName)
		b.respondWithEmbed(s, i, "Unknown Command", "This command is not recognized.", colorYellow)
		return
	}

	responder := NewDiscordResponder(s, i.Interaction)
	if err := b.dispatch(cmdName, handler, s, i, responder); err != nil {
		slog.Error("failed to handle command", "command", cmdName, "error", err)
		b.respondWithEmbed(s, i, "Error", "An error occurred while processing your command.",
			colorRed)
	}
}

// dispatch runs a handler, converting a panic into an error.
func (b *Bot) dispatch(
	cmdName string,
	handler InteractionHandler,
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r Responder,
) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			wrapped := goerrors.Wrap(rec, 2)
			slog.Error("recovered panic in command handler",
				"command", cmdName,
				"error", wrapped.Error(),
				"stack", wrapped.ErrorStack(),
			)
			err = wrapped
		}
	}()
	return handler(s, i, r)
}

// respondWithEmbed sends an embed response to an interaction.
func (b *Bot) respondWithEmbed(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	title, description string,
	color int,
) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}
