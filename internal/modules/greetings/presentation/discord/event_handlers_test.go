package discord

import (
	"context"
	"testing"
	"time"

	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/gateway/gatewaytest"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/ports/mocks"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/usecases"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/domain"
	"github.com/sglre6355/cirquebot/internal/storage/cache"
	"go.uber.org/mock/gomock"
)

func newEventHandlers(t *testing.T, config domain.Config) (*EventHandlers, *gatewaytest.Messenger) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c, err := cache.New[domain.Config](ctx, time.Hour)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	repo := mocks.NewMockRepository(gomock.NewController(t))
	repo.EXPECT().Get(gomock.Any(), testGuild).Return(config, true, nil).AnyTimes()
	messenger := gatewaytest.NewMessenger()
	guilds := gatewaytest.NewDirectory()
	guilds.AddGuild(testGuild, "Cirque")

	configs := usecases.NewConfigService(repo, c, guilds)
	return NewEventHandlers(ctx, usecases.NewGreeter(configs, messenger, guilds, 0)), messenger
}

func TestHandleMemberJoin(t *testing.T) {
	handlers, messenger := newEventHandlers(t, domain.Config{PublicChannelID: testChannel, PublicMessage: "Hi <user>"})

	handlers.HandleMemberJoin(context.Background(), gateway.MemberJoinEvent{GuildID: testGuild, UserID: testUser})

	deadline := time.Now().Add(2 * time.Second)
	for len(messenger.Sent()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected a public greeting")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := messenger.Sent()[0].Msg.Content; got != "Hi <@100>" {
		t.Errorf("expected the formatted greeting, got %q", got)
	}
}

func TestHandleMemberJoin_IgnoresBots(t *testing.T) {
	handlers, messenger := newEventHandlers(t, domain.Config{PublicChannelID: testChannel, PublicMessage: "Hi"})

	handlers.HandleMemberJoin(context.Background(), gateway.MemberJoinEvent{GuildID: testGuild, UserID: 5, Bot: true})

	time.Sleep(50 * time.Millisecond)
	if sent := messenger.Sent(); len(sent) != 0 {
		t.Errorf("expected no greeting for a bot, got %+v", sent)
	}
}
