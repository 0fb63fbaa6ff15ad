package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/enescakir/emoji"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/session"
)

// Menu emoji of the greeting wizard.
var (
	EmojiPublicChannel  = emoji.SatelliteAntenna.String()
	EmojiPublicMessage  = emoji.Loudspeaker.String()
	EmojiPrivateMessage = emoji.IncomingEnvelope.String()
)

const (
	textEmptyGreeting   = "\n```diff\n- NONE -```"
	textGreetingMessage = "\n```xml\n%s```"
	textActive          = "**active**"
	textInactive        = "**inactive**"
	textSummary         = "\nCurrently, the public greeting is %s and the private greeting is %s." +
		"\nYou may activate (or deactivate) one or both of these greetings at any time.\n"

	textMessageTips = "\n\n**Some helpful tips:**" +
		"\n \u200b - You may use `" + domain.UserPlaceholder + "` in your message to mention/ping the new member." +
		"\n \u200b - You may use `" + domain.ServerPlaceholder + "` in your message to display this server's name." +
		"\n \u200b - You may use Markdown formatting (e.g. `**bold text**`) in your message." +
		"\n \u200b - You may type `" + session.ClearSentinel + "` to remove an existing greeting message." +
		"\n\n**Example:** \u200b `Hello <user>! Welcome to **<server>**!`" +
		"\n\nPlease type out and send your desired greeting message now."
	textPromptPublic  = "**What should I say in my public greeting message to new members?**" + textMessageTips
	textPromptPrivate = "**What should I say in my private greeting DM to new members?**" + textMessageTips
	textPromptChannel = "**Which channel should be used for public greetings in this server?**" +
		"\n\n**Example:** \u200b <#%s>\n\nPlease tag your desired channel now."
)

// SessionScope admits one greeting configuration session per guild.
func SessionScope(guildID snowflake.ID) session.Scope {
	return session.GuildScope("greetings", guildID)
}

// SessionService starts greeting configuration sessions.
type SessionService struct {
	configs   *ConfigService
	registry  *session.Registry
	messenger gateway.Messenger
	waiter    gateway.Waiter
	guilds    gateway.GuildDirectory
	timeout   time.Duration
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	configs *ConfigService,
	registry *session.Registry,
	messenger gateway.Messenger,
	waiter gateway.Waiter,
	guilds gateway.GuildDirectory,
	timeout time.Duration,
) *SessionService {
	return &SessionService{
		configs:   configs,
		registry:  registry,
		messenger: messenger,
		waiter:    waiter,
		guilds:    guilds,
		timeout:   timeout,
	}
}

// StartSessionInput contains the input for the Start use case.
type StartSessionInput struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	OwnerID   snowflake.ID
}

// Start opens a configuration wizard in the channel. The wizard's lifetime is
// bound to ctx.
func (s *SessionService) Start(ctx context.Context, input StartSessionInput) (*session.Wizard[domain.Config], error) {
	committed, err := s.configs.Get(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}
	guildName, err := s.guilds.GuildName(ctx, input.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guild name: %w", err)
	}

	wizard := session.NewWizard(ctx, session.BaseOptions{
		Kind:      "greetings-config",
		Scope:     SessionScope(input.GuildID),
		ChannelID: input.ChannelID,
		Owner:     input.OwnerID,
		Messenger: s.messenger,
		Registry:  s.registry,
	}, s.waiter, s.timeout, session.WizardConfig[domain.Config]{
		Name:      "greeting configuration",
		Committed: committed,
		Clone:     func(c domain.Config) domain.Config { return c },
		Equal:     domain.Equal,
		Render: func(c domain.Config) gateway.OutgoingMessage {
			return gateway.OutgoingMessage{Embed: DisplayEmbed(guildName, c)}
		},
		Commit: func(ctx context.Context, c domain.Config) error {
			return s.configs.Save(ctx, input.GuildID, c)
		},
		Load: func(ctx context.Context) (domain.Config, error) {
			return s.configs.Get(ctx, input.GuildID)
		},
		Fields: s.fields(input.ChannelID),
	})

	if !s.registry.TryRegister(wizard) {
		wizard.Finish(session.OutcomeCancelled, nil)
		return nil, fmt.Errorf("%w: %w", ErrSessionActive, session.ErrSessionConflict)
	}
	wizard.Start()
	return wizard, nil
}

func (s *SessionService) fields(channelID snowflake.ID) []session.Field[domain.Config] {
	return []session.Field[domain.Config]{
		{
			Kind:        session.FieldChannel,
			Emoji:       EmojiPublicChannel,
			Description: "Edit public greeting channel",
			Prompt: func(domain.Config) *discordgo.MessageEmbed {
				return embeds.Basicf(EmojiPublicChannel, textPromptChannel, channelID)
			},
			SetChannel:      func(c *domain.Config, id snowflake.ID) { c.PublicChannelID = id },
			ValidateChannel: s.validateChannel,
			Confirm: func(c domain.Config, _ bool) string {
				return fmt.Sprintf("Public greeting messages will now be sent to <#%s>.", c.PublicChannelID)
			},
		},
		messageField(EmojiPublicMessage, "public", textPromptPublic, func(c *domain.Config) *string {
			return &c.PublicMessage
		}),
		messageField(EmojiPrivateMessage, "private", textPromptPrivate, func(c *domain.Config) *string {
			return &c.PrivateMessage
		}),
	}
}

func messageField(
	icon, identifier, prompt string,
	target func(c *domain.Config) *string,
) session.Field[domain.Config] {
	return session.Field[domain.Config]{
		Kind:        session.FieldText,
		Emoji:       icon,
		Description: fmt.Sprintf("Edit %s greeting message", identifier),
		Prompt: func(domain.Config) *discordgo.MessageEmbed {
			return embeds.Basic(prompt, icon)
		},
		SetText: func(c *domain.Config, value string) { *target(c) = value },
		Confirm: func(_ domain.Config, cleared bool) string {
			if cleared {
				return fmt.Sprintf("The %s greeting message has been removed.", identifier)
			}
			return fmt.Sprintf("The %s greeting message has been updated!", identifier)
		},
	}
}

func (s *SessionService) validateChannel(ctx context.Context, channelID snowflake.ID) error {
	ok, err := s.guilds.CanSend(ctx, channelID)
	if err != nil && !errors.Is(err, gateway.ErrChannelNotFound) {
		return fmt.Errorf("I couldn't check my permissions in <#%s>.", channelID)
	}
	if !ok {
		return fmt.Errorf("I don't have permission to post in <#%s>.", channelID)
	}
	return nil
}

// DisplayEmbed renders a configuration preview.
func DisplayEmbed(guildName string, c domain.Config) *discordgo.MessageEmbed {
	var b strings.Builder

	publicStatus, privateStatus := textInactive, textInactive
	if c.PublicActive() {
		publicStatus = textActive
	}
	if c.PrivateActive() {
		privateStatus = textActive
	}
	fmt.Fprintf(&b, textSummary, publicStatus, privateStatus)

	b.WriteString("** **\n" + EmojiPublicMessage + " \u200b **PUBLIC GREETING**\n")
	switch {
	case c.PublicActive():
		fmt.Fprintf(&b, "%s \u200b This message will be sent to <#%s> when a new member joins.", embeds.Success, c.PublicChannelID)
		fmt.Fprintf(&b, textGreetingMessage, c.PublicMessage)
	case c.PublicMessage != "":
		b.WriteString(emoji.Warning.String() + " \u200b Select a public channel to welcome new server members with this message.")
		fmt.Fprintf(&b, textGreetingMessage, c.PublicMessage)
	case c.PublicChannelID != 0:
		fmt.Fprintf(&b, "%s \u200b Set a public message to welcome new server members in <#%s>.", embeds.Warning, c.PublicChannelID)
		b.WriteString(textEmptyGreeting)
	default:
		b.WriteString(embeds.Warning + " \u200b Set a public message to welcome new server members via a text channel.")
		b.WriteString(textEmptyGreeting)
	}

	b.WriteString("** **\n" + EmojiPrivateMessage + " \u200b **PRIVATE GREETING**\n")
	if c.PrivateActive() {
		b.WriteString(embeds.Success + " \u200b This message will be sent to new server members via DM.")
		fmt.Fprintf(&b, textGreetingMessage, c.PrivateMessage)
	} else {
		b.WriteString(embeds.Warning + " \u200b Set a private message to welcome new server members via DM.")
		b.WriteString(textEmptyGreeting)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Greeting Configuration for %q", guildName),
		Description: b.String(),
		Color:       embeds.ColorDefault,
	}
}
