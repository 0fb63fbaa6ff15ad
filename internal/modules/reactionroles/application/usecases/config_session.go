package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/enescakir/emoji"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
	"github.com/sglre6355/cirquebot/internal/session"
)

// Menu emoji of the reaction-role wizard.
var (
	EmojiEditAssociations = emoji.Label.String()
	EmojiEditChannel      = emoji.SatelliteAntenna.String()
	EmojiAssignRole       = emoji.Memo.String()
	EmojiDeleteRole       = emoji.Soap.String()
)

const (
	textAssociationPrompt = "Please react with the emoji corresponding to the reaction/role you'd like to edit, " +
		"or react with a new (non-custom) emoji if you would like to assign a role to it."
	textRolePrompt = "**What is the name/id of the role you want to associate with this emoji?**" +
		"\nYou may also tag the role, but be aware that doing so will ping the people with that role in this channel."
)

// SessionScope admits one reaction-role configuration session per guild.
func SessionScope(guildID snowflake.ID) session.Scope {
	return session.GuildScope("reactionroles", guildID)
}

// SessionService starts reaction-role configuration sessions.
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
	Link      domain.MessageLink
}

// Start opens a configuration wizard for the linked message.
func (s *SessionService) Start(ctx context.Context, input StartSessionInput) (*session.Wizard[domain.Config], error) {
	if err := s.configs.Validate(ctx, input.GuildID, input.Link); err != nil {
		return nil, err
	}
	committed, found, err := s.configs.Get(ctx, input.Link)
	if err != nil {
		return nil, err
	}
	if !found {
		committed = domain.NewConfig(input.Link, input.ChannelID)
	}

	wizard := session.NewWizard(ctx, session.BaseOptions{
		Kind:      "reactionroles-config",
		Scope:     SessionScope(input.GuildID),
		ChannelID: input.ChannelID,
		Owner:     input.OwnerID,
		Messenger: s.messenger,
		Registry:  s.registry,
	}, s.waiter, s.timeout, session.WizardConfig[domain.Config]{
		Name:      "reaction/role config",
		Committed: committed,
		Clone:     domain.Config.Clone,
		Equal:     domain.Equal,
		Render: func(c domain.Config) gateway.OutgoingMessage {
			return gateway.OutgoingMessage{Embed: DisplayEmbed(c)}
		},
		Commit: s.commit,
		Load: func(ctx context.Context) (domain.Config, error) {
			current, found, err := s.configs.Get(ctx, input.Link)
			if err != nil || found {
				return current, err
			}
			return domain.NewConfig(input.Link, input.ChannelID), nil
		},
		Fields: s.fields(input.GuildID),
	})

	if !s.registry.TryRegister(wizard) {
		wizard.Finish(session.OutcomeCancelled, nil)
		return nil, fmt.Errorf("%w: %w", ErrSessionActive, session.ErrSessionConflict)
	}
	wizard.Start()
	return wizard, nil
}

func (s *SessionService) commit(ctx context.Context, c domain.Config) error {
	if err := s.configs.Save(ctx, c); err != nil {
		return err
	}
	if err := s.configs.SyncReactions(ctx, c); err != nil {
		slog.Warn("failed to sync reactions", "message_id", c.Link.MessageID.String(), "error", err)
	}
	return nil
}

func (s *SessionService) fields(guildID snowflake.ID) []session.Field[domain.Config] {
	return []session.Field[domain.Config]{
		{
			Kind:        session.FieldToggle,
			Icon:        domain.Config.ReactiveIcon,
			Description: "Toggle whether the message responds to reactions",
			Toggle:      func(c *domain.Config) { c.IsReactive = !c.IsReactive },
		},
		{
			Kind:        session.FieldToggle,
			Icon:        domain.Config.MultiselectIcon,
			Description: "Toggle whether users may select multiple roles",
			Toggle:      func(c *domain.Config) { c.AllowMultiselect = !c.AllowMultiselect },
		},
		{
			Kind:        session.FieldToggle,
			Icon:        domain.Config.CancellationIcon,
			Description: "Toggle whether users may remove roles by un-reacting",
			Toggle:      func(c *domain.Config) { c.AllowCancellation = !c.AllowCancellation },
		},
		{
			Kind:        session.FieldToggle,
			Icon:        domain.Config.ConfirmationIcon,
			Description: "Cycle the confirmation messages (none, DM, public)",
			Toggle:      func(c *domain.Config) { c.ConfirmationType = c.ConfirmationType.Next() },
		},
		{
			Kind:        session.FieldAction,
			Emoji:       EmojiEditAssociations,
			Description: "Edit or add reaction/role assignments",
			Run: func(ctx context.Context, w *session.Wizard[domain.Config]) error {
				return s.editAssociation(ctx, w, guildID)
			},
		},
		{
			Kind:        session.FieldChannel,
			Emoji:       EmojiEditChannel,
			Description: "Edit public confirmation channel",
			Prompt:      channelPrompt,
			SetChannel: func(c *domain.Config, id snowflake.ID) {
				c.ConfirmationType = domain.ConfirmationPublic
				c.ConfirmationChannelID = id
			},
			ValidateChannel: s.validateChannel,
			Confirm: func(c domain.Config, _ bool) string {
				return fmt.Sprintf("Role confirmation messages will now be posted in <#%s>.", c.ConfirmationChannelID)
			},
		},
	}
}

func channelPrompt(c domain.Config) *discordgo.MessageEmbed {
	const instructions = "\nIf you would like to change this, please tag the channel to which these messages should be sent."
	if c.ConfirmationType == domain.ConfirmationPublic {
		return embeds.Basicf(domain.EmojiConfirmPublic,
			"**Confirmation messages are currently being posted in <#%s>.**"+instructions, c.ConfirmationChannelID)
	}
	return embeds.Basic("**Role confirmation messages are currently NOT being posted publicly.**"+instructions,
		emoji.ShushingFace.String())
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

// editAssociation asks for a reaction to edit, then either edits or deletes
// an existing association or assigns a role to a new emoji.
func (s *SessionService) editAssociation(ctx context.Context, w *session.Wizard[domain.Config], guildID snowflake.ID) error {
	staged := w.Staging()
	prompt, err := w.Messenger().Send(ctx, w.ChannelID(), gateway.OutgoingMessage{
		Embed: embeds.Basic(textAssociationPrompt, EmojiEditAssociations),
	})
	if err != nil {
		return err
	}
	chosen, err := w.Prompter().ForReaction(ctx, prompt, session.ReactionOptions{
		Emoji:     staged.Emoji(),
		AcceptAny: true,
	})
	if err != nil {
		return err
	}
	deleteQuietly(ctx, w, prompt)

	existing, ok := staged.Lookup(chosen)
	if !ok {
		return s.assignRole(ctx, w, guildID, chosen)
	}

	menu, err := w.Messenger().Send(ctx, w.ChannelID(), gateway.OutgoingMessage{Embed: embeds.Basic(
		fmt.Sprintf("**Editing the \u200b %s \u200b reaction, currently assigned to the <@&%s> role.**", existing.Emoji, existing.RoleID)+
			embeds.Option(EmojiAssignRole, "Assign a different role to this reaction")+
			embeds.Option(EmojiDeleteRole, "Delete this reaction/role association")+
			embeds.Option(session.EmojiCancel, "Never mind, leave this reaction/role as is"),
		"",
	)})
	if err != nil {
		return err
	}
	action, err := w.Prompter().ForReaction(ctx, menu, session.ReactionOptions{
		Emoji: []string{EmojiAssignRole, EmojiDeleteRole, session.EmojiCancel},
	})
	if err != nil {
		return err
	}
	deleteQuietly(ctx, w, menu)

	switch action {
	case EmojiAssignRole:
		return s.assignRole(ctx, w, guildID, existing.Emoji)
	case EmojiDeleteRole:
		if err := w.Update(ctx, func(c *domain.Config) { c.Remove(existing.Emoji) }); err != nil {
			return err
		}
		confirm(ctx, w, fmt.Sprintf(
			"Reacting with \u200b %s \u200b will no longer grant the <@&%s> role.", existing.Emoji, existing.RoleID,
		))
	default:
		w.Notice(ctx, embeds.Errorf("No changes made to the \u200b %s \u200b reaction.", existing.Emoji))
	}
	return nil
}

func (s *SessionService) assignRole(
	ctx context.Context,
	w *session.Wizard[domain.Config],
	guildID snowflake.ID,
	reaction string,
) error {
	reply, prompt, err := w.Prompter().ForMessage(ctx, gateway.OutgoingMessage{
		Embed: embeds.Basic(textRolePrompt, reaction),
	}, nil)
	if err != nil {
		return err
	}
	deleteQuietly(ctx, w, prompt, reply.Ref())

	query := strings.Join(strings.Fields(reply.Content), " ")
	role, err := s.guilds.FindRole(ctx, guildID, query)
	if errors.Is(err, gateway.ErrRoleNotFound) {
		w.Notice(ctx, embeds.Errorf("Could not find a role matching **\"%s\"**. No changes made.", query))
		return nil
	}
	if err != nil {
		return err
	}

	association := domain.Association{Emoji: reaction, RoleID: role.ID}
	if err := w.Update(ctx, func(c *domain.Config) { c.Upsert(association) }); err != nil {
		return err
	}
	confirm(ctx, w, fmt.Sprintf("Reacting with \u200b %s \u200b will now grant the %s role.", reaction, role.Mention()))
	return nil
}

func confirm(ctx context.Context, w *session.Wizard[domain.Config], text string) {
	if _, err := w.Messenger().Send(ctx, w.ChannelID(), gateway.OutgoingMessage{
		Embed: embeds.Basic(text, embeds.Success),
	}); err != nil {
		w.Logger().Warn("failed to send confirmation", "error", err)
	}
}

func deleteQuietly(ctx context.Context, w *session.Wizard[domain.Config], refs ...gateway.MessageRef) {
	if err := w.Messenger().Delete(ctx, refs...); err != nil {
		w.Logger().Warn("failed to delete messages", "error", err)
	}
}

// DisplayEmbed renders a configuration preview.
func DisplayEmbed(c domain.Config) *discordgo.MessageEmbed {
	var b strings.Builder
	fmt.Fprintf(&b, "** **\n**Options for message %s:**", c.Link.Markdown())

	if c.IsReactive {
		b.WriteString("\n" + c.ReactiveIcon() + " The message is currently responding to the reactions below!")
	} else {
		b.WriteString("\n" + c.ReactiveIcon() + " The message is currently **NOT** responding to reactions.")
	}
	if c.AllowMultiselect {
		b.WriteString("\n" + c.MultiselectIcon() + " Users are allowed to select multiple roles.")
	} else {
		b.WriteString("\n" + c.MultiselectIcon() + " Users are only allowed to select **one** role.")
	}
	if c.AllowCancellation {
		b.WriteString("\n" + c.CancellationIcon() + " Users can remove their role(s) by un-reacting.")
	} else {
		b.WriteString("\n" + c.CancellationIcon() + " Users cannot remove their role(s) after adding them.")
	}
	switch c.ConfirmationType {
	case domain.ConfirmationPublic:
		fmt.Fprintf(&b, "\n%s Messages will be sent to <#%s> when users change their roles.",
			c.ConfirmationIcon(), c.ConfirmationChannelID)
	case domain.ConfirmationPrivate:
		b.WriteString("\n" + c.ConfirmationIcon() + " Users will receive a confirmation DM when they select or un-select a role.")
	default:
		b.WriteString("\n" + c.ConfirmationIcon() + " Confirmation messages will **NOT** be sent when users select or un-select roles.")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Reaction/Role Configuration",
		Description: b.String(),
		Color:       embeds.ColorDefault,
	}
	if len(c.Associations) == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "Reaction Emoji",
			Value: "*No reactions are assigned to roles yet.*",
		}}
		return embed
	}

	reactions := make([]string, len(c.Associations))
	roles := make([]string, len(c.Associations))
	for i, a := range c.Associations {
		reactions[i] = a.Emoji
		roles[i] = "<@&" + a.RoleID.String() + ">"
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Reaction Emoji", Value: strings.Join(reactions, "\n"), Inline: true},
		{Name: "Assigned Role", Value: strings.Join(roles, "\n"), Inline: true},
	}
	return embed
}
