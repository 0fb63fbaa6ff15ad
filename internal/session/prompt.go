package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sglre6355/cirquebot/internal/embeds"
	"github.com/sglre6355/cirquebot/internal/gateway"
)

// DefaultPromptTimeout is how long a prompt waits for the owner to respond.
const DefaultPromptTimeout = 180 * time.Second

// ReactionOptions controls a reaction prompt.
type ReactionOptions struct {
	// Emoji are attached to the message in order and accepted as answers.
	Emoji []string
	// AcceptAny also accepts any non-custom emoji the owner reacts with.
	AcceptAny bool
	// Persistent marks a message that outlives the session; on timeout its
	// reactions are cleared instead of the message being deleted.
	Persistent bool
}

// Prompter implements the prompt-then-wait primitives for one session.
type Prompter struct {
	base    *Base
	waiter  gateway.Waiter
	timeout time.Duration

	// OnTimeout runs before the session is finished as timed out and returns
	// the final message to post.
	OnTimeout func(ctx context.Context) *gateway.OutgoingMessage

	mu        sync.Mutex
	reactOn   gateway.MessageRef
	reminding bool
}

// NewPrompter creates a Prompter. A non-positive timeout selects DefaultPromptTimeout.
func NewPrompter(base *Base, waiter gateway.Waiter, timeout time.Duration) *Prompter {
	if timeout <= 0 {
		timeout = DefaultPromptTimeout
	}
	return &Prompter{
		base:    base,
		waiter:  waiter,
		timeout: timeout,
	}
}

// Timeout returns the wait duration of each prompt.
func (p *Prompter) Timeout() time.Duration { return p.timeout }

// ForMessage posts prompt in the session channel and waits for the owner to
// reply there with a message accepted by accept (nil accepts anything).
// The caller owns the returned prompt handle and deletes it.
func (p *Prompter) ForMessage(
	ctx context.Context,
	prompt gateway.OutgoingMessage,
	accept func(gateway.MessageEvent) bool,
) (gateway.MessageEvent, gateway.MessageRef, error) {
	ref, err := p.base.Messenger().Send(ctx, p.base.ChannelID(), prompt)
	if err != nil {
		return gateway.MessageEvent{}, gateway.MessageRef{}, fmt.Errorf("failed to send prompt: %w", err)
	}

	event, err := p.waiter.WaitFor(p.base.Context(), gateway.KindMessage, p.timeout, func(e gateway.Event) bool {
		msg, ok := e.(gateway.MessageEvent)
		if !ok {
			return false
		}
		if msg.ChannelID != p.base.ChannelID() || msg.AuthorID != p.base.Owner() {
			return false
		}
		return accept == nil || accept(msg)
	})
	if err != nil {
		p.base.Track(ref)
		return gateway.MessageEvent{}, ref, p.resolveWaitError(ctx, err)
	}
	return event.(gateway.MessageEvent), ref, nil
}

// ForReaction attaches the option emoji to the message and waits for the owner
// to react with one of them. On success the reactions are cleared and the
// chosen emoji is returned in the form given in opts.Emoji when it matches one.
func (p *Prompter) ForReaction(
	ctx context.Context,
	ref gateway.MessageRef,
	opts ReactionOptions,
) (string, error) {
	p.setReactOn(ref)
	defer p.setReactOn(gateway.MessageRef{})

	for _, e := range opts.Emoji {
		if err := p.base.Messenger().AddReaction(ctx, ref, e); err != nil {
			return "", fmt.Errorf("failed to add menu reaction: %w", err)
		}
	}

	event, err := p.waiter.WaitFor(p.base.Context(), gateway.KindReactionAdd, p.timeout, func(e gateway.Event) bool {
		reaction, ok := e.(gateway.ReactionEvent)
		if !ok {
			return false
		}
		if reaction.UserID != p.base.Owner() || reaction.MessageID != ref.ID {
			return false
		}
		return matchOption(opts.Emoji, reaction.Emoji) != "" || (opts.AcceptAny && !reaction.Custom)
	})
	if err != nil {
		if opts.Persistent {
			if clearErr := p.base.Messenger().ClearReactions(context.WithoutCancel(ctx), ref); clearErr != nil {
				p.base.Logger().Warn("failed to clear reactions", "error", clearErr)
			}
		} else {
			p.base.Track(ref)
		}
		return "", p.resolveWaitError(ctx, err)
	}

	reaction := event.(gateway.ReactionEvent)
	if err := p.base.Messenger().ClearReactions(ctx, ref); err != nil {
		p.base.Logger().Warn("failed to clear reactions", "error", err)
	}
	if option := matchOption(opts.Emoji, reaction.Emoji); option != "" {
		return option, nil
	}
	return reaction.Emoji, nil
}

func (p *Prompter) resolveWaitError(ctx context.Context, err error) error {
	if errors.Is(err, gateway.ErrWaitTimeout) {
		var final *gateway.OutgoingMessage
		if p.OnTimeout != nil {
			final = p.OnTimeout(context.WithoutCancel(ctx))
		}
		p.base.Finish(OutcomeTimedOut, final)
		return ErrPromptTimeout
	}
	if p.base.Finished() {
		return ErrSessionFinished
	}
	return fmt.Errorf("failed to wait for response: %w", err)
}

func (p *Prompter) setReactOn(ref gateway.MessageRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reactOn = ref
}

// AwaitingReaction reports whether a reaction prompt is currently waiting.
func (p *Prompter) AwaitingReaction() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.reactOn.IsZero()
}

// HandleStray consumes an owner message typed while a reaction is expected and
// answers it with a reminder. Both messages are removed when the session ends.
func (p *Prompter) HandleStray(event gateway.Event) bool {
	msg, ok := event.(gateway.MessageEvent)
	if !ok || msg.ChannelID != p.base.ChannelID() || msg.AuthorID != p.base.Owner() {
		return false
	}
	if !p.AwaitingReaction() {
		return false
	}

	p.base.Track(msg.Ref())

	p.mu.Lock()
	if p.reminding {
		p.mu.Unlock()
		return true
	}
	p.reminding = true
	p.mu.Unlock()

	go func() {
		defer p.base.Recover()
		defer func() {
			p.mu.Lock()
			p.reminding = false
			p.mu.Unlock()
		}()

		notice := embeds.Basicf(embeds.Warning, "<@%s>, please react to my message above!", msg.AuthorID)
		ref, err := p.base.Messenger().Send(p.base.Context(), msg.ChannelID, gateway.OutgoingMessage{Embed: notice})
		if err != nil {
			p.base.Logger().Warn("failed to send reaction reminder", "error", err)
			return
		}
		if p.base.Finished() {
			// The session ended while the reminder was in flight.
			_ = p.base.Messenger().Delete(context.Background(), ref)
			return
		}
		p.base.Track(ref)
	}()
	return true
}

func matchOption(options []string, got string) string {
	i := slices.IndexFunc(options, func(o string) bool { return gateway.SameEmoji(o, got) })
	if i < 0 {
		return ""
	}
	return options[i]
}
