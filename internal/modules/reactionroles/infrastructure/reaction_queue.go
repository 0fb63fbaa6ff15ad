package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	goerrors "github.com/go-errors/errors"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles/application/usecases"
)

// DefaultReactionBufferSize is the default buffer size of a ReactionQueue.
const DefaultReactionBufferSize = 100

// ReactionHandler applies one queued reaction.
type ReactionHandler func(ctx context.Context, input usecases.ReactionInput) error

// ReactionQueue hands reactions from the gateway to a single worker so that
// the gateway never waits on role changes and the changes apply in arrival
// order.
type ReactionQueue struct {
	reactions chan usecases.ReactionInput
	handler   ReactionHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewReactionQueue starts a queue that runs handler for every published
// reaction until ctx is done or the queue is closed.
func NewReactionQueue(ctx context.Context, bufferSize int, handler ReactionHandler) *ReactionQueue {
	if bufferSize <= 0 {
		bufferSize = DefaultReactionBufferSize
	}
	ctx, cancel := context.WithCancel(ctx)

	q := &ReactionQueue{
		reactions: make(chan usecases.ReactionInput, bufferSize),
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
	q.wg.Add(1)
	go q.dispatch()
	return q
}

func (q *ReactionQueue) dispatch() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case input, ok := <-q.reactions:
			if !ok {
				return
			}
			q.handle(input)
		}
	}
}

func (q *ReactionQueue) handle(input usecases.ReactionInput) {
	defer func() {
		if r := recover(); r != nil {
			err := goerrors.Wrap(r, 2)
			slog.Error("panic while applying reaction role",
				"message_id", input.MessageID.String(),
				"error", err,
				"stack", err.ErrorStack(),
			)
		}
	}()
	if err := q.handler(q.ctx, input); err != nil {
		slog.Error("failed to apply reaction role",
			"guild_id", input.GuildID.String(),
			"message_id", input.MessageID.String(),
			"user_id", input.UserID.String(),
			"emoji", input.Emoji,
			"added", input.Added,
			"error", err,
		)
	}
}

// Publish queues a reaction.
// Non-blocking: if the buffer is full, the reaction is dropped with a warning.
func (q *ReactionQueue) Publish(input usecases.ReactionInput) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		slog.Warn("attempted to publish to closed reaction queue")
		return
	}

	select {
	case q.reactions <- input:
		slog.Debug("queued reaction", "message_id", input.MessageID.String(), "added", input.Added)
	default:
		slog.Warn("reaction buffer full, dropping reaction", "message_id", input.MessageID.String())
	}
}

// Close stops the worker and waits for the reaction in progress to finish.
// Queued reactions that have not started are dropped.
func (q *ReactionQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	close(q.reactions)
	q.wg.Wait()

	slog.Debug("reaction queue closed")
}
