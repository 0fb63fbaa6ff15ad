package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/gateway/gatewaytest"
)

const (
	emojiToggle  = "\U0001F514"
	emojiText    = "\U0001F4DD"
	emojiChannel = "\U0001F4E1"
)

type testConfig struct {
	Enabled bool
	Text    string
	Channel snowflake.ID
}

type wizardHarness struct {
	messenger *gatewaytest.Messenger
	wizard    *Wizard[testConfig]
	commits   []testConfig
	outcomes  []Outcome
}

func newWizardHarness(t *testing.T, commitErr error, steps ...gatewaytest.Step) *wizardHarness {
	t.Helper()
	h := &wizardHarness{messenger: gatewaytest.NewMessenger()}
	waiter := gatewaytest.NewWaiter(h.messenger, steps...)

	cfg := WizardConfig[testConfig]{
		Name:      "test configuration",
		Committed: testConfig{Text: "old"},
		Clone:     func(c testConfig) testConfig { return c },
		Equal:     func(a, b testConfig) bool { return a == b },
		Render: func(c testConfig) gateway.OutgoingMessage {
			return gateway.OutgoingMessage{Content: fmt.Sprintf("enabled=%t text=%q channel=%d", c.Enabled, c.Text, c.Channel)}
		},
		Commit: func(_ context.Context, c testConfig) error {
			h.commits = append(h.commits, c)
			return commitErr
		},
		Fields: []Field[testConfig]{
			{
				Kind:        FieldToggle,
				Emoji:       emojiToggle,
				Description: "Toggle",
				Toggle:      func(c *testConfig) { c.Enabled = !c.Enabled },
			},
			{
				Kind:        FieldText,
				Emoji:       emojiText,
				Description: "Edit text",
				Prompt:      func(testConfig) *discordgo.MessageEmbed { return &discordgo.MessageEmbed{Description: "text?"} },
				SetText:     func(c *testConfig, v string) { c.Text = v },
				Confirm: func(_ testConfig, cleared bool) string {
					if cleared {
						return "The text has been removed."
					}
					return "The text has been updated!"
				},
			},
			{
				Kind:        FieldChannel,
				Emoji:       emojiChannel,
				Description: "Set channel",
				Prompt:      func(testConfig) *discordgo.MessageEmbed { return &discordgo.MessageEmbed{Description: "channel?"} },
				SetChannel:  func(c *testConfig, id snowflake.ID) { c.Channel = id },
				ValidateChannel: func(_ context.Context, id snowflake.ID) error {
					if id == 666 {
						return errors.New("I can't send messages there.")
					}
					return nil
				},
			},
		},
	}

	h.wizard = NewWizard(context.Background(), BaseOptions{
		Kind:      "test-wizard",
		Scope:     GuildScope("test", 1),
		ChannelID: testChannel,
		Owner:     testOwner,
		Messenger: h.messenger,
		OnFinish:  func(o Outcome) { h.outcomes = append(h.outcomes, o) },
	}, waiter, time.Minute, cfg)
	return h
}

func (h *wizardHarness) finalDescription(t *testing.T) string {
	t.Helper()
	last, ok := h.messenger.Last()
	if !ok || last.Msg.Embed == nil {
		t.Fatalf("expected a final embed, got %+v", last)
	}
	return last.Msg.Embed.Description
}

func (h *wizardHarness) display() gateway.MessageRef {
	return h.messenger.Sent()[0].Ref
}

func TestWizard_ToggleAndSave(t *testing.T) {
	h := newWizardHarness(t, nil,
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, EmojiSave),
	)
	h.wizard.Run()

	if len(h.commits) != 1 || !h.commits[0].Enabled || h.commits[0].Text != "old" {
		t.Fatalf("expected one commit with the toggle applied, got %+v", h.commits)
	}
	if h.wizard.State() != StateSaved {
		t.Errorf("expected saved state, got %v", h.wizard.State())
	}
	if len(h.outcomes) != 1 || h.outcomes[0] != OutcomeSaved {
		t.Errorf("expected saved outcome, got %v", h.outcomes)
	}
	if !strings.Contains(h.finalDescription(t), "saved and are now live") {
		t.Errorf("unexpected final message %q", h.finalDescription(t))
	}

	edits := h.messenger.Edits(h.display())
	if len(edits) == 0 || !strings.Contains(edits[len(edits)-1].Content, "enabled=true") {
		t.Errorf("expected the preview to show the toggle, got %+v", edits)
	}
}

func TestWizard_SaveWithoutChanges(t *testing.T) {
	h := newWizardHarness(t, nil,
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, EmojiSave),
	)
	h.wizard.Run()

	if len(h.commits) != 0 {
		t.Errorf("expected no commit, got %+v", h.commits)
	}
	if !strings.Contains(h.finalDescription(t), "didn't make any changes") {
		t.Errorf("unexpected final message %q", h.finalDescription(t))
	}
}

func TestWizard_EditText(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantText string
		wantNote string
	}{
		{"stores the reply", "```**hello**```", "**hello**", "has been updated!"},
		{"clears with the sentinel", "<clear>", "", "has been removed."},
		{"rejects formatting only", "** __ **", "old", "Invalid message content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newWizardHarness(t, nil,
				gatewaytest.React(testOwner, emojiText),
				gatewaytest.Reply(testChannel, testOwner, tt.reply),
				gatewaytest.React(testOwner, EmojiSave),
			)
			h.wizard.Run()

			if tt.wantText == "old" {
				if len(h.commits) != 0 {
					t.Errorf("expected no commit, got %+v", h.commits)
				}
			} else if len(h.commits) != 1 || h.commits[0].Text != tt.wantText {
				t.Errorf("expected committed text %q, got %+v", tt.wantText, h.commits)
			}

			noted := false
			for _, s := range h.messenger.Sent() {
				if s.Msg.Embed != nil && strings.Contains(s.Msg.Embed.Description, tt.wantNote) {
					noted = true
				}
			}
			if !noted {
				t.Errorf("expected a notice containing %q", tt.wantNote)
			}
		})
	}
}

func TestWizard_EditChannel(t *testing.T) {
	t.Run("accepts one channel", func(t *testing.T) {
		h := newWizardHarness(t, nil,
			gatewaytest.React(testOwner, emojiChannel),
			gatewaytest.Reply(testChannel, testOwner, "<#42>", 42),
			gatewaytest.React(testOwner, EmojiSave),
		)
		h.wizard.Run()

		if len(h.commits) != 1 || h.commits[0].Channel != 42 {
			t.Errorf("expected channel 42 committed, got %+v", h.commits)
		}
	})

	t.Run("rejects several channels and cleans up the error", func(t *testing.T) {
		h := newWizardHarness(t, nil,
			gatewaytest.React(testOwner, emojiChannel),
			gatewaytest.Reply(testChannel, testOwner, "<#1> <#2>", 1, 2),
			gatewaytest.React(testOwner, EmojiCancel),
		)
		h.wizard.Run()

		for _, s := range h.messenger.Remaining() {
			if s.Msg.Embed != nil && strings.Contains(s.Msg.Embed.Description, "exactly one channel") {
				t.Error("expected the error notice to be deleted at the end of the session")
			}
		}
		if h.wizard.State() != StateCancelled {
			t.Errorf("expected cancelled state, got %v", h.wizard.State())
		}
	})

	t.Run("rejects channels that fail validation", func(t *testing.T) {
		h := newWizardHarness(t, nil,
			gatewaytest.React(testOwner, emojiChannel),
			gatewaytest.Reply(testChannel, testOwner, "<#666>", 666),
			gatewaytest.React(testOwner, EmojiSave),
		)
		h.wizard.Run()

		if len(h.commits) != 0 {
			t.Errorf("expected no commit, got %+v", h.commits)
		}
	})
}

func TestWizard_ToggleRefreshesMenuIcons(t *testing.T) {
	const (
		iconOn  = "\U0001F7E2"
		iconOff = "\U0001F534"
	)
	h := newWizardHarness(t, nil,
		gatewaytest.React(testOwner, iconOff),
		gatewaytest.React(testOwner, EmojiCancel),
	)
	h.wizard.cfg.Fields[0].Icon = func(c testConfig) string {
		if c.Enabled {
			return iconOn
		}
		return iconOff
	}
	h.wizard.Run()

	menu := h.messenger.Sent()[1].Ref
	if !strings.Contains(h.messenger.Sent()[1].Msg.Embed.Description, iconOff) {
		t.Fatalf("expected the first menu to list %s", iconOff)
	}
	edits := h.messenger.Edits(menu)
	if len(edits) != 1 || edits[0].Embed == nil {
		t.Fatalf("expected one menu refresh, got %+v", edits)
	}
	text := edits[0].Embed.Description
	if !strings.Contains(text, iconOn) || strings.Contains(text, iconOff) {
		t.Errorf("expected the refreshed menu to list only the new icon, got %q", text)
	}
}

func TestWizard_SaveComparesAgainstStoredConfig(t *testing.T) {
	h := newWizardHarness(t, nil,
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, EmojiSave),
	)
	h.wizard.cfg.Load = func(context.Context) (testConfig, error) {
		return testConfig{Enabled: true, Text: "old"}, nil
	}
	h.wizard.Run()

	if len(h.commits) != 0 {
		t.Errorf("expected no commit when the stored config already matches, got %+v", h.commits)
	}
	if !strings.Contains(h.finalDescription(t), "didn't make any changes") {
		t.Errorf("unexpected final message %q", h.finalDescription(t))
	}
}

func TestWizard_SaveDetectsConcurrentReset(t *testing.T) {
	h := newWizardHarness(t, nil,
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, EmojiSave),
	)
	h.wizard.cfg.Load = func(context.Context) (testConfig, error) {
		return testConfig{}, nil
	}
	h.wizard.Run()

	if len(h.commits) != 1 || h.commits[0].Text != "old" {
		t.Errorf("expected the staged config committed over the reset, got %+v", h.commits)
	}
}

func TestWizard_SaveLoadFailure(t *testing.T) {
	h := newWizardHarness(t, nil,
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, EmojiSave),
	)
	h.wizard.cfg.Load = func(context.Context) (testConfig, error) {
		return testConfig{}, errors.New("database locked")
	}
	h.wizard.Run()

	if len(h.commits) != 0 {
		t.Errorf("expected no commit, got %+v", h.commits)
	}
	if h.wizard.State() != StateFailed {
		t.Errorf("expected failed state, got %v", h.wizard.State())
	}
}

func TestWizard_CancelRevertsPreview(t *testing.T) {
	h := newWizardHarness(t, nil,
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, EmojiCancel),
	)
	h.wizard.Run()

	if len(h.commits) != 0 {
		t.Errorf("expected no commit, got %+v", h.commits)
	}
	edits := h.messenger.Edits(h.display())
	if len(edits) == 0 || !strings.Contains(edits[len(edits)-1].Content, "enabled=false") {
		t.Errorf("expected the preview reverted, got %+v", edits)
	}
	if !strings.Contains(h.finalDescription(t), "Canceled the test configuration session") {
		t.Errorf("unexpected final message %q", h.finalDescription(t))
	}
}

func TestWizard_Timeout(t *testing.T) {
	h := newWizardHarness(t, nil, gatewaytest.React(testOwner, emojiToggle))
	h.wizard.Run()

	if h.wizard.State() != StateTimedOut {
		t.Errorf("expected timed out state, got %v", h.wizard.State())
	}
	if !strings.Contains(h.finalDescription(t), "too slow") {
		t.Errorf("unexpected final message %q", h.finalDescription(t))
	}

	remaining := h.messenger.Remaining()
	if len(remaining) != 2 {
		t.Errorf("expected the preview and the final message to remain, got %d", len(remaining))
	}
}

func TestWizard_CommitFailure(t *testing.T) {
	h := newWizardHarness(t, errors.New("disk full"),
		gatewaytest.React(testOwner, emojiToggle),
		gatewaytest.React(testOwner, EmojiSave),
	)
	h.wizard.Run()

	if h.wizard.State() != StateFailed {
		t.Errorf("expected failed state, got %v", h.wizard.State())
	}
	if !strings.Contains(h.finalDescription(t), "Something went wrong") {
		t.Errorf("unexpected final message %q", h.finalDescription(t))
	}
}

func TestParseTextInput(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantValue   string
		wantCleared bool
		wantErr     error
	}{
		{"plain", "  Welcome <user>!  ", "Welcome <user>!", false, nil},
		{"strips code fences", "```hi```", "hi", false, nil},
		{"keeps inline formatting", "**bold**", "**bold**", false, nil},
		{"clear sentinel", "<clear>", "", true, nil},
		{"formatted clear sentinel", "**<clear>**", "", true, nil},
		{"formatting only", "*_~`|", "", false, ErrBlankText},
		{"whitespace", "   ", "", false, ErrBlankText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, cleared, err := ParseTextInput(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if value != tt.wantValue || cleared != tt.wantCleared {
				t.Errorf("expected (%q, %t), got (%q, %t)", tt.wantValue, tt.wantCleared, value, cleared)
			}
		})
	}
}

func TestParseChannelInput(t *testing.T) {
	if _, err := ParseChannelInput(nil); !errors.Is(err, ErrChannelArity) {
		t.Errorf("expected ErrChannelArity for no mentions, got %v", err)
	}
	if _, err := ParseChannelInput([]snowflake.ID{1, 2}); !errors.Is(err, ErrChannelArity) {
		t.Errorf("expected ErrChannelArity for two mentions, got %v", err)
	}
	id, err := ParseChannelInput([]snowflake.ID{3})
	if err != nil || id != 3 {
		t.Errorf("expected channel 3, got %d (%v)", id, err)
	}
}
