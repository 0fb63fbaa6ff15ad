package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/gateway"
)

// cleanupTimeout bounds the API calls made while finishing a session.
const cleanupTimeout = 15 * time.Second

// Outcome is the terminal result of a session.
type Outcome int

const (
	OutcomeSaved Outcome = iota
	OutcomeCancelled
	OutcomeTimedOut
	OutcomeResolved
	OutcomeFailed
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeResolved:
		return "resolved"
	default:
		return "failed"
	}
}

// BaseOptions configures a Base.
type BaseOptions struct {
	Kind      string
	Scope     Scope
	ChannelID snowflake.ID
	Owner     snowflake.ID
	Messenger gateway.Messenger
	Registry  *Registry
	// OnFinish is invoked exactly once with the terminal outcome.
	OnFinish func(Outcome)
}

// Base carries the state every session shares: identity, scope, owner, the
// set of transient messages to delete at the end, and idempotent termination.
type Base struct {
	id        string
	kind      string
	scope     Scope
	channelID snowflake.ID
	messenger gateway.Messenger
	registry  *Registry
	onFinish  func(Outcome)
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	owner   snowflake.ID
	cleanup []gateway.MessageRef

	finishOnce sync.Once
	outcome    Outcome
}

// NewBase creates a Base whose context is derived from parent.
func NewBase(parent context.Context, opts BaseOptions) *Base {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	return &Base{
		id:        id,
		kind:      opts.Kind,
		scope:     opts.Scope,
		channelID: opts.ChannelID,
		owner:     opts.Owner,
		messenger: opts.Messenger,
		registry:  opts.Registry,
		onFinish:  opts.OnFinish,
		logger: slog.With(
			"session_id", id,
			"kind", opts.Kind,
			"scope", string(opts.Scope),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *Base) ID() string              { return b.id }
func (b *Base) Kind() string            { return b.kind }
func (b *Base) Scope() Scope            { return b.scope }
func (b *Base) ChannelID() snowflake.ID { return b.channelID }
func (b *Base) Logger() *slog.Logger    { return b.logger }

// Context is cancelled when the session finishes.
func (b *Base) Context() context.Context { return b.ctx }

// Done is closed when the session finishes.
func (b *Base) Done() <-chan struct{} { return b.ctx.Done() }

// Messenger returns the messenger the session talks through.
func (b *Base) Messenger() gateway.Messenger { return b.messenger }

// Owner returns the user whose input the session currently accepts.
func (b *Base) Owner() snowflake.ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

// SetOwner changes the user whose input the session accepts.
func (b *Base) SetOwner(id snowflake.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.owner = id
}

// Track adds messages to the set deleted when the session finishes.
func (b *Base) Track(refs ...gateway.MessageRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ref := range refs {
		if !ref.IsZero() {
			b.cleanup = append(b.cleanup, ref)
		}
	}
}

// PendingCleanup returns a copy of the tracked messages.
func (b *Base) PendingCleanup() []gateway.MessageRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]gateway.MessageRef, len(b.cleanup))
	copy(out, b.cleanup)
	return out
}

// Finished reports whether Finish has run.
func (b *Base) Finished() bool {
	return b.ctx.Err() != nil
}

// Outcome returns the terminal outcome. It is only meaningful once Finished.
func (b *Base) Outcome() Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome
}

// Finish terminates the session: tracked messages are bulk-deleted, the final
// message (if any) is posted, the scope is released and OnFinish runs.
// Only the first call has any effect; it reports whether this call finished the session.
func (b *Base) Finish(outcome Outcome, final *gateway.OutgoingMessage) bool {
	finished := false
	b.finishOnce.Do(func() {
		finished = true

		b.mu.Lock()
		b.outcome = outcome
		cleanup := b.cleanup
		b.cleanup = nil
		b.mu.Unlock()

		b.cancel()

		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if len(cleanup) > 0 {
			if err := b.messenger.Delete(ctx, cleanup...); err != nil {
				b.logger.Warn("failed to delete session messages", "count", len(cleanup), "error", err)
			}
		}
		if final != nil {
			if _, err := b.messenger.Send(ctx, b.channelID, *final); err != nil {
				b.logger.Warn("failed to send final session message", "error", err)
			}
		}
		if b.registry != nil {
			b.registry.Unregister(b.scope, b.id)
		}

		b.logger.Info("finished session", "outcome", outcome.String())

		if b.onFinish != nil {
			b.onFinish(outcome)
		}
	})
	return finished
}

// Recover must be deferred at the top of every goroutine a session starts.
// A panic is logged with its stack and the session ends with OutcomeFailed.
func (b *Base) Recover() {
	r := recover()
	if r == nil {
		return
	}
	err := goerrors.Wrap(r, 2)
	b.logger.Error("recovered panic in session",
		"error", err.Error(),
		"stack", err.ErrorStack(),
	)
	b.Finish(OutcomeFailed, &gateway.OutgoingMessage{Embed: embeds.Apology()})
}

// Fail logs an unexpected error and ends the session with OutcomeFailed.
func (b *Base) Fail(err error) {
	b.logger.Error("failed session step", "error", err)
	b.Finish(OutcomeFailed, &gateway.OutgoingMessage{Embed: embeds.Apology()})
}
