package usecases

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/gateway/gatewaytest"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
	"github.com/sglre6355/cirquebot/internal/session"
)

type gameHarness struct {
	game      *GameSession
	registry  *session.Registry
	messenger *gatewaytest.Messenger
	announcer *fakeAnnouncer
	renderer  *fakeRenderer
	outcomes  chan session.Outcome
}

func newGameHarness(t *testing.T, timing Timing, animation time.Duration, typing bool) *gameHarness {
	t.Helper()
	h := &gameHarness{
		registry:  session.NewRegistry(),
		messenger: gatewaytest.NewMessenger(),
		announcer: newFakeAnnouncer(),
		renderer:  &fakeRenderer{duration: animation},
		outcomes:  make(chan session.Outcome, 1),
	}
	h.game = NewGameSession(context.Background(), GameOptions{
		ChannelID:          testChannel,
		StarterID:          testStarter,
		Pool:               domain.DefaultTable().All(),
		Timing:             timing,
		TypingDisqualifies: typing,
		Registry:           h.registry,
		Messenger:          h.messenger,
		Renderer:           h.renderer,
		Announcer:          h.announcer,
		OnFinish:           func(o session.Outcome) { h.outcomes <- o },
	})
	if !h.registry.TryRegister(h.game) {
		t.Fatal("failed to register game")
	}
	t.Cleanup(func() { h.game.Finish(session.OutcomeCancelled, nil) })
	return h
}

func (h *gameHarness) outcome(t *testing.T) session.Outcome {
	t.Helper()
	select {
	case o := <-h.outcomes:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the game outcome")
		return session.OutcomeFailed
	}
}

func TestGameSession_LobbyRosterAndCollectiveLoss(t *testing.T) {
	h := newGameHarness(t, Timing{
		LobbyInterval: 200 * time.Millisecond,
		LobbyUpdates:  3,
		RoundInterval: 50 * time.Millisecond,
	}, 0, true)

	go h.game.Run()
	<-h.announcer.opened

	joins := []struct {
		player   snowflake.ID
		consumed bool
	}{
		{2, true},
		{testStarter, false},
		{3, true},
		{2, false},
	}
	for _, j := range joins {
		if got := h.game.Handle(message(j.player, "me!")); got != j.consumed {
			t.Errorf("player %d: expected consumed=%v, got %v", j.player, j.consumed, got)
		}
	}
	if got, want := h.game.Roster(), []snowflake.ID{1, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("expected roster %v, got %v", want, got)
	}

	if o := h.outcome(t); o != session.OutcomeResolved {
		t.Fatalf("expected resolved outcome, got %s", o)
	}

	got := h.announcer.snapshot()
	if len(got.lobbies) == 0 || got.lobbies[len(got.lobbies)-1].Remaining != 0 {
		t.Errorf("expected the final lobby view to show no time remaining, got %+v", got.lobbies)
	}
	if got.started != 1 {
		t.Errorf("expected 1 start announcement, got %d", got.started)
	}
	if len(got.calls) != 1 {
		t.Errorf("expected the game to end after the first call, got %d calls", len(got.calls))
	}
	if len(got.deaths) != 1 || !slices.Equal(got.deaths[0], []snowflake.ID{1, 2, 3}) {
		t.Errorf("expected one death batch of [1 2 3], got %v", got.deaths)
	}
	if len(got.results) != 1 || got.results[0].Won() {
		t.Fatalf("expected a single lost result, got %+v", got.results)
	}
	if !slices.Equal(got.results[0].Losers, []snowflake.ID{1, 2, 3}) {
		t.Errorf("expected losers [1 2 3], got %v", got.results[0].Losers)
	}
	if h.registry.Len() != 0 {
		t.Error("expected the game scope to be released")
	}
}

func TestGameSession_CorrectGuessesWin(t *testing.T) {
	h := newGameHarness(t, Timing{RoundInterval: 150 * time.Millisecond}, 0, true)

	// Every target label is itself an accepted guess.
	h.announcer.onCall = func(ports.CallView) {
		h.game.mu.Lock()
		target, _ := h.game.game.Live()
		h.game.mu.Unlock()
		h.game.Handle(message(testStarter, "wrong"))
		h.game.Handle(message(testStarter, target.Label))
	}

	go h.game.Run()

	if o := h.outcome(t); o != session.OutcomeResolved {
		t.Fatalf("expected resolved outcome, got %s", o)
	}

	got := h.announcer.snapshot()
	if len(got.calls) != domain.DefaultFlashes {
		t.Errorf("expected %d calls, got %d", domain.DefaultFlashes, len(got.calls))
	}
	for i, call := range got.calls {
		if call.Round != i || call.Total != domain.DefaultFlashes {
			t.Errorf("call %d: unexpected view %+v", i, call)
		}
	}
	if len(got.deaths) != 0 {
		t.Errorf("expected no deaths, got %v", got.deaths)
	}
	if len(got.results) != 1 || !slices.Equal(got.results[0].Winners, []snowflake.ID{testStarter}) {
		t.Errorf("expected the starter to win, got %+v", got.results)
	}
	if len(h.renderer.rendered) != 1 || len(h.renderer.rendered[0]) != domain.DefaultFlashes {
		t.Errorf("expected one rendered sequence of %d targets, got %v", domain.DefaultFlashes, h.renderer.rendered)
	}
}

func TestGameSession_EarlyInputEndsGame(t *testing.T) {
	h := newGameHarness(t, Timing{RoundInterval: time.Second}, time.Hour, true)

	go h.game.Run()
	waitUntil(t, "the announcement phase", func() bool {
		return h.game.Phase() == domain.PhaseAnnouncing
	})

	if !h.game.Handle(gateway.TypingEvent{ChannelID: testChannel, UserID: testStarter}) {
		t.Fatal("expected typing to be consumed")
	}

	if o := h.outcome(t); o != session.OutcomeResolved {
		t.Fatalf("expected resolved outcome, got %s", o)
	}

	got := h.announcer.snapshot()
	if !slices.Equal(got.disqualified, []snowflake.ID{testStarter}) {
		t.Errorf("expected the starter to be disqualified, got %v", got.disqualified)
	}
	if len(got.calls) != 0 {
		t.Errorf("expected no calls, got %d", len(got.calls))
	}
	if len(got.results) != 1 || got.results[0].Won() {
		t.Errorf("expected a lost result, got %+v", got.results)
	}
}

func TestGameSession_Handle(t *testing.T) {
	h := newGameHarness(t, DefaultTiming(), 0, false)

	tests := []struct {
		name  string
		event gateway.Event
		want  bool
	}{
		{"typing when typing is allowed", gateway.TypingEvent{ChannelID: testChannel, UserID: 2}, false},
		{"other channel", gateway.MessageEvent{ChannelID: 99, AuthorID: 2, Content: "hi"}, false},
		{"bot author", gateway.MessageEvent{ChannelID: testChannel, AuthorID: 2, AuthorBot: true}, false},
		{"reaction", gateway.ReactionEvent{ChannelID: testChannel, UserID: 2, Added: true}, false},
		{"new player", message(2, "hi"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.game.Handle(tt.event); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGameSession_RenderFailure(t *testing.T) {
	h := newGameHarness(t, Timing{}, 0, true)
	h.renderer.err = errors.New("no frames")

	go h.game.Run()

	if o := h.outcome(t); o != session.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", o)
	}
	if last, ok := h.messenger.Last(); !ok || last.Msg.Embed == nil {
		t.Error("expected an apology to be posted")
	}
}

func TestGameSession_CancelledByParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	registry := session.NewRegistry()
	outcomes := make(chan session.Outcome, 1)
	announcer := newFakeAnnouncer()

	game := NewGameSession(ctx, GameOptions{
		ChannelID: testChannel,
		StarterID: testStarter,
		Pool:      domain.DefaultTable().All(),
		Timing:    DefaultTiming(),
		Registry:  registry,
		Messenger: gatewaytest.NewMessenger(),
		Renderer:  &fakeRenderer{},
		Announcer: announcer,
		OnFinish:  func(o session.Outcome) { outcomes <- o },
	})
	registry.TryRegister(game)
	go game.Run()
	<-announcer.opened

	cancel()

	select {
	case o := <-outcomes:
		if o != session.OutcomeCancelled {
			t.Errorf("expected cancelled outcome, got %s", o)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the game to stop")
	}
	if registry.Len() != 0 {
		t.Error("expected the game scope to be released")
	}
	if got := announcer.snapshot(); len(got.results) != 0 {
		t.Errorf("expected no result announcement, got %+v", got.results)
	}
}
