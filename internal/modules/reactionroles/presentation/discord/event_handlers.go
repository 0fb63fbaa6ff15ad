package discord

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/application/usecases"
)

// ReactionPublisher queues reactions for the role assigner.
type ReactionPublisher interface {
	Publish(input usecases.ReactionInput)
}

// EventHandlers reacts to gateway events for the reaction-roles module.
type EventHandlers struct {
	queue  ReactionPublisher
	selfID snowflake.ID
}

// NewEventHandlers creates new EventHandlers. Reactions by selfID are ignored.
func NewEventHandlers(queue ReactionPublisher, selfID snowflake.ID) *EventHandlers {
	return &EventHandlers{queue: queue, selfID: selfID}
}

// HandleReaction forwards guild reactions by members to the queue. Role
// changes run off the bus because they make several API calls.
func (h *EventHandlers) HandleReaction(_ context.Context, event gateway.Event) {
	reaction, ok := event.(gateway.ReactionEvent)
	if !ok || reaction.GuildID == 0 || reaction.UserBot || reaction.UserID == h.selfID {
		return
	}
	h.queue.Publish(usecases.ReactionInput{
		GuildID:   reaction.GuildID,
		ChannelID: reaction.ChannelID,
		MessageID: reaction.MessageID,
		UserID:    reaction.UserID,
		Emoji:     reaction.Emoji,
		Added:     reaction.Added,
	})
}
