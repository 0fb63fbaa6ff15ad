package discord

import (
	"context"
	"errors"
	"log/slog"

	goerrors "github.com/go-errors/errors"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/greetings/application/usecases"
)

// EventHandlers reacts to gateway events for the greetings module.
type EventHandlers struct {
	ctx     context.Context
	greeter *usecases.Greeter
}

// NewEventHandlers creates new EventHandlers. Greetings in flight are
// abandoned when ctx is cancelled.
func NewEventHandlers(ctx context.Context, greeter *usecases.Greeter) *EventHandlers {
	return &EventHandlers{ctx: ctx, greeter: greeter}
}

// HandleMemberJoin greets a new member. The greeting waits out its delay on
// its own goroutine so the bus keeps dispatching.
func (h *EventHandlers) HandleMemberJoin(_ context.Context, event gateway.Event) {
	join, ok := event.(gateway.MemberJoinEvent)
	if !ok || join.Bot {
		return
	}
	go h.greet(join)
}

func (h *EventHandlers) greet(join gateway.MemberJoinEvent) {
	defer func() {
		if r := recover(); r != nil {
			err := goerrors.Wrap(r, 2)
			slog.Error("recovered panic while greeting member",
				"guild_id", join.GuildID.String(),
				"error", err.Error(),
				"stack", err.ErrorStack(),
			)
		}
	}()

	err := h.greeter.Greet(h.ctx, join.GuildID, join.UserID)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("failed to greet member",
			"guild_id", join.GuildID.String(),
			"user_id", join.UserID.String(),
			"error", err,
		)
	}
}
