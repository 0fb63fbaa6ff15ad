package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/session"
)

// DefaultGreetingDelay gives a new member time to gain access to the guild
// before the greeting is posted.
const DefaultGreetingDelay = time.Second

// Greeter sends the configured greetings.
type Greeter struct {
	configs   *ConfigService
	messenger gateway.Messenger
	guilds    gateway.GuildDirectory
	delay     time.Duration
}

// NewGreeter creates a new Greeter.
func NewGreeter(
	configs *ConfigService,
	messenger gateway.Messenger,
	guilds gateway.GuildDirectory,
	delay time.Duration,
) *Greeter {
	return &Greeter{
		configs:   configs,
		messenger: messenger,
		guilds:    guilds,
		delay:     delay,
	}
}

func mention(userID snowflake.ID) string {
	return "<@" + userID.String() + ">"
}

// Greet waits for the greeting delay and then posts the public greeting and
// sends the private one to a member who just joined.
func (g *Greeter) Greet(ctx context.Context, guildID, userID snowflake.ID) error {
	logger := slog.With("guild_id", guildID.String(), "user_id", userID.String())

	if err := session.Sleep(ctx, g.delay); err != nil {
		return err
	}

	config, err := g.configs.Get(ctx, guildID)
	if err != nil {
		return err
	}
	if config.IsZero() {
		logger.Debug("skipped greeting for unconfigured guild")
		return nil
	}
	guildName, err := g.guilds.GuildName(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to resolve guild name: %w", err)
	}

	if config.PublicActive() {
		g.postPublic(ctx, logger, config, userID, guildName)
	} else {
		logger.Debug("public greetings are disabled")
	}

	if config.PrivateActive() {
		message := domain.Format(config.PrivateMessage, mention(userID), guildName)
		if _, err := g.messenger.SendDirect(ctx, userID, gateway.OutgoingMessage{Content: message}); err != nil {
			logger.Warn("failed to send private greeting", "error", err)
		} else {
			logger.Info("sent private greeting")
		}
	}
	return nil
}

func (g *Greeter) postPublic(
	ctx context.Context,
	logger *slog.Logger,
	config domain.Config,
	userID snowflake.ID,
	guildName string,
) {
	logger = logger.With("channel_id", config.PublicChannelID.String())

	ok, err := g.guilds.CanSend(ctx, config.PublicChannelID)
	switch {
	case errors.Is(err, gateway.ErrChannelNotFound):
		logger.Warn("skipped public greeting for missing channel")
		return
	case err != nil:
		logger.Warn("failed to check greeting channel permissions", "error", err)
		return
	case !ok:
		logger.Warn("skipped public greeting without send permission")
		return
	}

	message := domain.Format(config.PublicMessage, mention(userID), guildName)
	if _, err := g.messenger.Send(ctx, config.PublicChannelID, gateway.OutgoingMessage{Content: message}); err != nil {
		logger.Warn("failed to post public greeting", "error", err)
		return
	}
	logger.Info("posted public greeting")
}

// PublicTarget describes where a demonstrated public greeting would go.
type PublicTarget int

const (
	// TargetCurrentChannel means the greeting goes to the channel of the demo.
	TargetCurrentChannel PublicTarget = iota
	TargetOtherChannel
	TargetUnwritable
	TargetMissing
)

// DemoInput contains the input for the Demo use case.
type DemoInput struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	UserID    snowflake.ID
}

// DemoOutput contains the output for the Demo use case.
type DemoOutput struct {
	GuildName string
	// Public is the formatted public greeting, empty when inactive.
	Public          string
	PublicChannelID snowflake.ID
	PublicTarget    PublicTarget
	// PrivateSent reports whether the private greeting was sent to the user.
	PrivateSent bool
}

// Demo formats the public greeting as the invoking user would see it and
// sends them the private greeting.
func (g *Greeter) Demo(ctx context.Context, input DemoInput) (*DemoOutput, error) {
	config, err := g.configs.Get(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}
	guildName, err := g.guilds.GuildName(ctx, input.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guild name: %w", err)
	}
	output := &DemoOutput{GuildName: guildName}

	if config.PublicActive() {
		output.Public = domain.Format(config.PublicMessage, mention(input.UserID), guildName)
		output.PublicChannelID = config.PublicChannelID
		output.PublicTarget, err = g.publicTarget(ctx, input.ChannelID, config.PublicChannelID)
		if err != nil {
			return nil, err
		}
	}

	if config.PrivateActive() {
		message := domain.Format(config.PrivateMessage, mention(input.UserID), guildName)
		if _, err := g.messenger.SendDirect(ctx, input.UserID, gateway.OutgoingMessage{Content: message}); err != nil {
			return nil, fmt.Errorf("failed to send private greeting: %w", err)
		}
		output.PrivateSent = true
	}
	return output, nil
}

func (g *Greeter) publicTarget(ctx context.Context, current, public snowflake.ID) (PublicTarget, error) {
	if current == public {
		return TargetCurrentChannel, nil
	}
	ok, err := g.guilds.CanSend(ctx, public)
	switch {
	case errors.Is(err, gateway.ErrChannelNotFound):
		return TargetMissing, nil
	case err != nil:
		return 0, err
	case !ok:
		return TargetUnwritable, nil
	default:
		return TargetOtherChannel, nil
	}
}
