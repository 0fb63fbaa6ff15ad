package usecases

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/domain"
)

func TestConfigService_GetIsCachedPerGuild(t *testing.T) {
	f := newFixture(t)
	f.stored(colors())
	f.stored(colors(func(c *domain.Config) { c.Link = otherLink }))

	for _, link := range []domain.MessageLink{testLink, otherLink, testLink} {
		if _, found, err := f.configs.Get(context.Background(), link); err != nil || !found {
			t.Fatalf("expected config for %v, got found=%v err=%v", link, found, err)
		}
	}
	if f.repo.loads != 1 {
		t.Errorf("expected 1 load, got %d", f.repo.loads)
	}

	if err := f.configs.Save(context.Background(), colors(func(c *domain.Config) { c.IsReactive = false })); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _, _ := f.configs.Get(context.Background(), testLink)
	if got.IsReactive {
		t.Error("expected the saved config after a write")
	}
}

func TestConfigService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		link    domain.MessageLink
		prepare func(f *fixture)
		want    error
	}{
		{name: "ok", link: testLink},
		{
			name: "other guild",
			link: domain.MessageLink{GuildID: 2, ChannelID: 20, MessageID: 30},
			want: ErrForeignMessage,
		},
		{
			name: "missing message",
			link: domain.MessageLink{GuildID: testGuild, ChannelID: 20, MessageID: 99},
			want: ErrMessageNotFound,
		},
		{
			name: "cannot react",
			link: testLink,
			prepare: func(f *fixture) {
				f.guilds.RestrictReactions(testLink.ChannelID, gateway.ReactionAccess{CanManage: true})
			},
			want: ErrCannotAddReactions,
		},
		{
			name: "cannot manage",
			link: testLink,
			prepare: func(f *fixture) {
				f.guilds.RestrictReactions(testLink.ChannelID, gateway.ReactionAccess{CanAdd: true})
			},
			want: ErrCannotManageMessages,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.prepare != nil {
				tt.prepare(f)
			}
			err := f.configs.Validate(context.Background(), testGuild, tt.link)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigService_SyncReactions(t *testing.T) {
	f := newFixture(t)
	f.guilds.SetReactions(ref(testLink), "🔴", "🟢")

	if err := f.configs.SyncReactions(context.Background(), colors()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.messenger.Reactions(ref(testLink)); !slices.Equal(got, []string{"🔴", "🔵"}) {
		t.Errorf("expected configured reactions, got %v", got)
	}
	if got := f.messenger.RemovedReactions(); !slices.Equal(got, []string{"30:🟢:*"}) {
		t.Errorf("expected the stray reaction to be cleared, got %v", got)
	}
}

func TestConfigService_SyncReactionsClearsInactive(t *testing.T) {
	f := newFixture(t)
	_ = f.messenger.AddReaction(context.Background(), ref(testLink), "🔴")

	inactive := colors(func(c *domain.Config) { c.IsReactive = false })
	if err := f.configs.SyncReactions(context.Background(), inactive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.messenger.Reactions(ref(testLink)); len(got) != 0 {
		t.Errorf("expected no reactions, got %v", got)
	}
}

func TestConfigService_ListMessagesPrunesDeleted(t *testing.T) {
	f := newFixture(t)
	gone := domain.MessageLink{GuildID: testGuild, ChannelID: 20, MessageID: 77}
	f.stored(colors())
	f.stored(colors(func(c *domain.Config) { c.Link = gone }))

	output, err := f.configs.ListMessages(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.GuildName != "Cirque" {
		t.Errorf("expected guild name, got %q", output.GuildName)
	}
	if len(output.Messages) != 1 || output.Messages[0].Link != testLink {
		t.Fatalf("expected only the existing message, got %+v", output.Messages)
	}
	if !slices.Equal(output.Messages[0].Emoji, []string{"🔴", "🔵"}) {
		t.Errorf("unexpected emoji %v", output.Messages[0].Emoji)
	}
	if _, ok := f.repo.get(gone.MessageID); ok {
		t.Error("expected the deleted message's config to be pruned")
	}
}

func TestConfigService_Reset(t *testing.T) {
	f := newFixture(t)
	f.stored(colors())

	deleted, err := f.configs.Reset(context.Background(), testGuild, testLink)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got %v (%v)", deleted, err)
	}
	if _, ok := f.repo.get(testLink.MessageID); ok {
		t.Error("expected config to be deleted")
	}
	want := []string{"30:🔴:900", "30:🔵:900"}
	if got := f.messenger.RemovedReactions(); !slices.Equal(got, want) {
		t.Errorf("expected the bot's reactions %v to be withdrawn, got %v", want, got)
	}

	deleted, err = f.configs.Reset(context.Background(), testGuild, testLink)
	if err != nil || deleted {
		t.Errorf("expected nothing to delete, got %v (%v)", deleted, err)
	}
}

func TestConfigService_Copy(t *testing.T) {
	f := newFixture(t)
	f.stored(colors(func(c *domain.Config) { c.AllowMultiselect = false }))

	if err := f.configs.Copy(context.Background(), testGuild, testLink, otherLink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	copied, ok := f.repo.get(otherLink.MessageID)
	if !ok {
		t.Fatal("expected the destination to be configured")
	}
	if copied.Link != otherLink || copied.AllowMultiselect || len(copied.Associations) != 2 {
		t.Errorf("unexpected copy %+v", copied)
	}
	if got := f.messenger.Reactions(ref(otherLink)); !slices.Equal(got, []string{"🔴", "🔵"}) {
		t.Errorf("expected reactions on the destination, got %v", got)
	}
}

func TestConfigService_CopyErrors(t *testing.T) {
	f := newFixture(t)
	missing := domain.MessageLink{GuildID: testGuild, ChannelID: 20, MessageID: 99}

	if err := f.configs.Copy(context.Background(), testGuild, testLink, otherLink); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if err := f.configs.Copy(context.Background(), testGuild, testLink, missing); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}
}
