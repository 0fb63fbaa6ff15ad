package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/enescakir/emoji"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/gateway"
)

// ClearSentinel typed as a text value blanks the field.
const ClearSentinel = "<clear>"

var (
	formattingPattern = regexp.MustCompile("[*_~`|]")

	// ErrBlankText is returned for text that is empty once formatting is removed.
	ErrBlankText = errors.New("text is blank after removing formatting")

	// ErrChannelArity is returned when a reply does not mention exactly one channel.
	ErrChannelArity = errors.New("expected exactly one channel mention")
)

// Menu emoji shared by every wizard.
var (
	EmojiSave   = embeds.Success
	EmojiCancel = embeds.Error
)

// FieldKind selects how a wizard field is edited.
type FieldKind int

const (
	// FieldToggle cycles through a fixed domain in place.
	FieldToggle FieldKind = iota
	// FieldText asks for a free-text reply.
	FieldText
	// FieldChannel asks for a reply mentioning one channel.
	FieldChannel
	// FieldAction runs a custom sub-dialogue.
	FieldAction
)

// Field is one entry of a wizard menu.
type Field[C any] struct {
	Kind        FieldKind
	Emoji       string
	Description string
	// Icon optionally overrides Emoji with a value-dependent emoji.
	Icon func(c C) string

	// Toggle advances the field to its next value.
	Toggle func(c *C)

	// Prompt is posted when asking for a text or channel reply.
	Prompt func(c C) *discordgo.MessageEmbed
	// SetText stores a sanitized value; an empty value clears the field.
	SetText func(c *C, value string)
	// SetChannel stores the mentioned channel.
	SetChannel func(c *C, channelID snowflake.ID)
	// ValidateChannel optionally rejects a channel with a user-facing error.
	ValidateChannel func(ctx context.Context, channelID snowflake.ID) error
	// Confirm returns the notice shown after a successful edit.
	Confirm func(c C, cleared bool) string

	// Run performs a custom sub-dialogue on the staging copy.
	Run func(ctx context.Context, w *Wizard[C]) error
}

func (f Field[C]) icon(c C) string {
	if f.Icon != nil {
		return f.Icon(c)
	}
	return f.Emoji
}

// WizardConfig describes a configuration wizard.
type WizardConfig[C any] struct {
	// Name appears in session notices, e.g. "greeting configuration".
	Name      string
	Fields    []Field[C]
	Committed C
	Clone     func(C) C
	Equal     func(a, b C) bool
	// Render builds the live preview of a configuration.
	Render func(c C) gateway.OutgoingMessage
	// Commit persists the staged configuration atomically.
	Commit func(ctx context.Context, c C) error
	// Load optionally re-reads the stored configuration at save time. Without
	// it, changes are judged against Committed.
	Load func(ctx context.Context) (C, error)
}

// WizardState is the position of a wizard in its dialogue.
type WizardState int

const (
	StateMainMenu WizardState = iota
	StateEditingText
	StateEditingChannel
	StateRunningAction
	StateSaved
	StateCancelled
	StateTimedOut
	StateFailed
)

// Wizard is a reaction-driven configuration session. Edits go to a staging
// copy that replaces the committed configuration only on save.
type Wizard[C any] struct {
	*Base
	cfg      WizardConfig[C]
	prompter *Prompter

	mu      sync.Mutex
	staging C
	state   WizardState
	display gateway.MessageRef
}

// NewWizard creates a wizard session owned by the base's owner.
func NewWizard[C any](
	parent context.Context,
	opts BaseOptions,
	waiter gateway.Waiter,
	timeout time.Duration,
	cfg WizardConfig[C],
) *Wizard[C] {
	w := &Wizard[C]{
		cfg:     cfg,
		staging: cfg.Clone(cfg.Committed),
	}

	onFinish := opts.OnFinish
	opts.OnFinish = func(outcome Outcome) {
		w.setState(stateForOutcome(outcome))
		if onFinish != nil {
			onFinish(outcome)
		}
	}

	w.Base = NewBase(parent, opts)
	w.prompter = NewPrompter(w.Base, waiter, timeout)
	w.prompter.OnTimeout = func(ctx context.Context) *gateway.OutgoingMessage {
		w.revertDisplay(ctx)
		return &gateway.OutgoingMessage{Embed: embeds.Basic(
			"You're too slow!"+embeds.Spacer+emoji.Sloth.String()+embeds.Spacer+
				"Canceled the config session and reverted any changes.",
			embeds.Error,
		)}
	}
	return w
}

func stateForOutcome(o Outcome) WizardState {
	switch o {
	case OutcomeSaved:
		return StateSaved
	case OutcomeCancelled:
		return StateCancelled
	case OutcomeTimedOut:
		return StateTimedOut
	default:
		return StateFailed
	}
}

// Handle consumes owner messages sent while a menu reaction is expected.
func (w *Wizard[C]) Handle(event gateway.Event) bool {
	if w.Finished() {
		return false
	}
	return w.prompter.HandleStray(event)
}

// Prompter returns the wizard's prompt primitives for custom actions.
func (w *Wizard[C]) Prompter() *Prompter { return w.prompter }

// State returns the current dialogue state.
func (w *Wizard[C]) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard[C]) setState(s WizardState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

// Staging returns a copy of the staged configuration.
func (w *Wizard[C]) Staging() C {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg.Clone(w.staging)
}

// Update mutates the staged configuration and refreshes the preview.
func (w *Wizard[C]) Update(ctx context.Context, mutate func(c *C)) error {
	w.mu.Lock()
	mutate(&w.staging)
	preview := w.cfg.Render(w.staging)
	display := w.display
	w.mu.Unlock()

	if display.IsZero() {
		return nil
	}
	if err := w.Messenger().Edit(ctx, display, preview); err != nil {
		return fmt.Errorf("failed to refresh preview: %w", err)
	}
	return nil
}

func (w *Wizard[C]) revertDisplay(ctx context.Context) {
	w.mu.Lock()
	display := w.display
	w.mu.Unlock()
	if display.IsZero() {
		return
	}
	if err := w.Messenger().Edit(ctx, display, w.cfg.Render(w.cfg.Committed)); err != nil {
		w.Logger().Warn("failed to revert preview", "error", err)
	}
}

// Start runs the wizard dialogue in its own goroutine.
func (w *Wizard[C]) Start() {
	go w.Run()
}

// Run drives the dialogue until the wizard finishes.
func (w *Wizard[C]) Run() {
	defer w.Recover()
	ctx := w.Context()

	display, err := w.Messenger().Send(ctx, w.ChannelID(), w.cfg.Render(w.cfg.Committed))
	if err != nil {
		w.Fail(err)
		return
	}
	w.mu.Lock()
	w.display = display
	w.mu.Unlock()

	var menu gateway.MessageRef
	for !w.Finished() {
		w.setState(StateMainMenu)

		if menu.IsZero() {
			menu, err = w.Messenger().Send(ctx, w.ChannelID(), gateway.OutgoingMessage{Embed: w.menuEmbed()})
			if err != nil {
				w.fail(ctx, err)
				return
			}
		}

		staged := w.Staging()
		options := w.menuEmoji(staged)
		choice, err := w.prompter.ForReaction(ctx, menu, ReactionOptions{Emoji: options})
		if err != nil {
			w.handlePromptError(ctx, err)
			return
		}

		field, action := w.resolveChoice(staged, choice)
		if action == choiceField && field.Kind == FieldToggle {
			if err := w.Update(ctx, func(c *C) { field.Toggle(c) }); err != nil {
				w.fail(ctx, err)
				return
			}
			if err := w.Messenger().Edit(ctx, menu, gateway.OutgoingMessage{Embed: w.menuEmbed()}); err != nil {
				w.fail(ctx, fmt.Errorf("failed to refresh menu: %w", err))
				return
			}
			continue
		}

		if err := w.Messenger().Delete(ctx, menu); err != nil {
			w.Logger().Warn("failed to delete menu", "error", err)
		}
		menu = gateway.MessageRef{}

		switch action {
		case choiceSave:
			w.save(ctx)
			return
		case choiceCancel:
			w.revertDisplay(ctx)
			w.Finish(OutcomeCancelled, &gateway.OutgoingMessage{Embed: embeds.Basicf(
				EmojiCancel, "Canceled the %s session and reverted any changes.", w.cfg.Name,
			)})
			return
		}

		if err := w.editField(ctx, field); err != nil {
			w.handlePromptError(ctx, err)
			return
		}
	}
	w.Finish(OutcomeCancelled, nil)
}

type menuAction int

const (
	choiceField menuAction = iota
	choiceSave
	choiceCancel
)

func (w *Wizard[C]) resolveChoice(staged C, choice string) (Field[C], menuAction) {
	if gateway.SameEmoji(choice, EmojiSave) {
		return Field[C]{}, choiceSave
	}
	if gateway.SameEmoji(choice, EmojiCancel) {
		return Field[C]{}, choiceCancel
	}
	for _, f := range w.cfg.Fields {
		if gateway.SameEmoji(f.icon(staged), choice) {
			return f, choiceField
		}
	}
	// ForReaction only returns offered emoji; treat anything else as cancel.
	return Field[C]{}, choiceCancel
}

func (w *Wizard[C]) menuEmoji(staged C) []string {
	options := make([]string, 0, len(w.cfg.Fields)+2)
	for _, f := range w.cfg.Fields {
		options = append(options, f.icon(staged))
	}
	return append(options, EmojiSave, EmojiCancel)
}

func (w *Wizard[C]) menuEmbed() *discordgo.MessageEmbed {
	staged := w.Staging()
	var b strings.Builder
	b.WriteString("**Configuration in progress! Please react with one of the following emoji:**")
	for _, f := range w.cfg.Fields {
		b.WriteString(embeds.Option(f.icon(staged), f.Description))
	}
	b.WriteString(embeds.Option(EmojiSave, "Save and activate the current configuration"))
	b.WriteString(embeds.Option(EmojiCancel, "Scrap the current session and discard all changes"))
	return embeds.Basic(b.String(), "")
}

func (w *Wizard[C]) editField(ctx context.Context, f Field[C]) error {
	switch f.Kind {
	case FieldText:
		w.setState(StateEditingText)
		return w.editText(ctx, f)
	case FieldChannel:
		w.setState(StateEditingChannel)
		return w.editChannel(ctx, f)
	case FieldAction:
		w.setState(StateRunningAction)
		return f.Run(ctx, w)
	default:
		return nil
	}
}

func (w *Wizard[C]) editText(ctx context.Context, f Field[C]) error {
	reply, prompt, err := w.prompter.ForMessage(ctx, gateway.OutgoingMessage{Embed: f.Prompt(w.Staging())}, nil)
	if err != nil {
		return err
	}
	w.deleteQuietly(ctx, prompt, reply.Ref())

	value, cleared, err := ParseTextInput(reply.Content)
	if err != nil {
		w.Notice(ctx, embeds.Errorf("Invalid message content: `%s`. No changes made.", reply.Content))
		return nil
	}

	if err := w.Update(ctx, func(c *C) { f.SetText(c, value) }); err != nil {
		return err
	}
	w.confirm(ctx, f, cleared)
	return nil
}

func (w *Wizard[C]) editChannel(ctx context.Context, f Field[C]) error {
	reply, prompt, err := w.prompter.ForMessage(ctx, gateway.OutgoingMessage{Embed: f.Prompt(w.Staging())}, nil)
	if err != nil {
		return err
	}
	w.deleteQuietly(ctx, prompt, reply.Ref())

	channelID, err := ParseChannelInput(reply.ChannelMentions)
	if err != nil {
		w.Notice(ctx, embeds.Errorf("**\"%s\"** did not specify exactly one channel. No changes made.", reply.Content))
		return nil
	}
	if f.ValidateChannel != nil {
		if err := f.ValidateChannel(ctx, channelID); err != nil {
			w.Notice(ctx, embeds.Errorf("%s No changes made.", err.Error()))
			return nil
		}
	}

	if err := w.Update(ctx, func(c *C) { f.SetChannel(c, channelID) }); err != nil {
		return err
	}
	w.confirm(ctx, f, false)
	return nil
}

func (w *Wizard[C]) confirm(ctx context.Context, f Field[C], cleared bool) {
	if f.Confirm == nil {
		return
	}
	text := f.Confirm(w.Staging(), cleared)
	if _, err := w.Messenger().Send(ctx, w.ChannelID(), gateway.OutgoingMessage{
		Embed: embeds.Basic(text, embeds.Success),
	}); err != nil {
		w.Logger().Warn("failed to send confirmation", "error", err)
	}
}

// Notice posts a transient message that is deleted when the session ends.
func (w *Wizard[C]) Notice(ctx context.Context, embed *discordgo.MessageEmbed) {
	ref, err := w.Messenger().Send(ctx, w.ChannelID(), gateway.OutgoingMessage{Embed: embed})
	if err != nil {
		w.Logger().Warn("failed to send notice", "error", err)
		return
	}
	w.Track(ref)
}

func (w *Wizard[C]) deleteQuietly(ctx context.Context, refs ...gateway.MessageRef) {
	if err := w.Messenger().Delete(ctx, refs...); err != nil {
		w.Logger().Warn("failed to delete messages", "error", err)
	}
}

func (w *Wizard[C]) save(ctx context.Context) {
	staged := w.Staging()
	current := w.cfg.Committed
	if w.cfg.Load != nil {
		loaded, err := w.cfg.Load(ctx)
		if err != nil {
			w.fail(ctx, fmt.Errorf("failed to load %s: %w", w.cfg.Name, err))
			return
		}
		current = loaded
	}
	if !HasChanges(staged, current, w.cfg.Equal) {
		w.Finish(OutcomeSaved, &gateway.OutgoingMessage{Embed: embeds.Basic(
			"Config session ended. You didn't make any changes!",
			emoji.FaceWithRaisedEyebrow.String(),
		)})
		return
	}

	if err := w.cfg.Commit(ctx, staged); err != nil {
		w.fail(ctx, fmt.Errorf("failed to commit %s: %w", w.cfg.Name, err))
		return
	}
	w.Finish(OutcomeSaved, &gateway.OutgoingMessage{Embed: embeds.Basic(
		"Your config changes have been saved and are now live!",
		emoji.PartyingFace.String(),
	)})
}

func (w *Wizard[C]) handlePromptError(ctx context.Context, err error) {
	if errors.Is(err, ErrPromptTimeout) {
		return
	}
	if errors.Is(err, ErrSessionFinished) {
		// The parent context was cancelled; release the scope.
		w.Finish(OutcomeCancelled, nil)
		return
	}
	w.fail(ctx, err)
}

func (w *Wizard[C]) fail(ctx context.Context, err error) {
	w.revertDisplay(context.WithoutCancel(ctx))
	w.Fail(err)
}

// ParseTextInput validates a free-text reply. It returns the value to store,
// whether the reply was the clear sentinel, and ErrBlankText for replies made
// only of whitespace and formatting characters.
func ParseTextInput(content string) (value string, cleared bool, err error) {
	unformatted := strings.TrimSpace(formattingPattern.ReplaceAllString(content, ""))
	if unformatted == "" {
		return "", false, ErrBlankText
	}
	if unformatted == ClearSentinel {
		return "", true, nil
	}
	return strings.TrimSpace(strings.ReplaceAll(content, "```", "")), false, nil
}

// ParseChannelInput returns the single mentioned channel.
func ParseChannelInput(mentions []snowflake.ID) (snowflake.ID, error) {
	if len(mentions) != 1 {
		return 0, ErrChannelArity
	}
	return mentions[0], nil
}

// HasChanges reports whether staged differs from committed.
func HasChanges[C any](staged, committed C, equal func(a, b C) bool) bool {
	return !equal(staged, committed)
}
