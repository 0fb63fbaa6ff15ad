package usecases

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
)

const (
	testChannel = snowflake.ID(10)
	testStarter = snowflake.ID(1)
)

type fakeAnnouncer struct {
	mu           sync.Mutex
	lobbies      []ports.LobbyView
	started      int
	calls        []ports.CallView
	deaths       [][]snowflake.ID
	disqualified []snowflake.ID
	results      []domain.Result

	opened chan struct{}
	onCall func(view ports.CallView)
}

func newFakeAnnouncer() *fakeAnnouncer {
	return &fakeAnnouncer{opened: make(chan struct{})}
}

func (a *fakeAnnouncer) OpenLobby(
	_ context.Context,
	channelID snowflake.ID,
	view ports.LobbyView,
) (gateway.MessageRef, error) {
	a.mu.Lock()
	a.lobbies = append(a.lobbies, view)
	a.mu.Unlock()
	close(a.opened)
	return gateway.MessageRef{ChannelID: channelID, ID: 500}, nil
}

func (a *fakeAnnouncer) UpdateLobby(_ context.Context, _ gateway.MessageRef, view ports.LobbyView) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lobbies = append(a.lobbies, view)
	return nil
}

func (a *fakeAnnouncer) Start(context.Context, snowflake.ID, ports.Animation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started++
	return nil
}

func (a *fakeAnnouncer) Call(_ context.Context, _ snowflake.ID, view ports.CallView) error {
	a.mu.Lock()
	a.calls = append(a.calls, view)
	hook := a.onCall
	a.mu.Unlock()
	if hook != nil {
		hook(view)
	}
	return nil
}

func (a *fakeAnnouncer) Deaths(_ context.Context, _ snowflake.ID, killed []snowflake.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deaths = append(a.deaths, slices.Clone(killed))
	return nil
}

func (a *fakeAnnouncer) Disqualified(_ context.Context, _ snowflake.ID, player snowflake.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disqualified = append(a.disqualified, player)
	return nil
}

func (a *fakeAnnouncer) Result(_ context.Context, _ snowflake.ID, result domain.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	return nil
}

func (a *fakeAnnouncer) snapshot() fakeAnnouncer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fakeAnnouncer{
		lobbies:      slices.Clone(a.lobbies),
		started:      a.started,
		calls:        slices.Clone(a.calls),
		deaths:       slices.Clone(a.deaths),
		disqualified: slices.Clone(a.disqualified),
		results:      slices.Clone(a.results),
	}
}

type fakeRenderer struct {
	duration time.Duration
	err      error
	rendered [][]domain.Target
}

func (r *fakeRenderer) RenderSequence(targets []domain.Target) (ports.Animation, error) {
	if r.err != nil {
		return ports.Animation{}, r.err
	}
	r.rendered = append(r.rendered, targets)
	return ports.Animation{Name: "abs.gif", ContentType: "image/gif", Duration: r.duration}, nil
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the game to finish")
	}
}

func message(author snowflake.ID, content string) gateway.MessageEvent {
	return gateway.MessageEvent{
		ID:        snowflake.ID(9000),
		ChannelID: testChannel,
		AuthorID:  author,
		Content:   content,
	}
}
