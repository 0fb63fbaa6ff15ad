// Package gatewaytest provides in-memory fakes of the gateway ports for tests.
package gatewaytest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
)

// Sent is a message recorded by Messenger.
type Sent struct {
	Ref     gateway.MessageRef
	Msg     gateway.OutgoingMessage
	Direct  bool
	UserID  snowflake.ID
	Deleted bool
}

// Messenger records every call made through the gateway.Messenger port.
type Messenger struct {
	mu        sync.Mutex
	nextID    snowflake.ID
	sent      []*Sent
	edits     map[gateway.MessageRef][]gateway.OutgoingMessage
	reactions map[gateway.MessageRef][]string
	removed   []string
	cleared   int

	// SendErr, when set, is returned by Send.
	SendErr error
}

var _ gateway.Messenger = (*Messenger)(nil)

// NewMessenger creates an empty Messenger.
func NewMessenger() *Messenger {
	return &Messenger{
		nextID:    1000,
		edits:     make(map[gateway.MessageRef][]gateway.OutgoingMessage),
		reactions: make(map[gateway.MessageRef][]string),
	}
}

func (m *Messenger) record(channelID snowflake.ID, msg gateway.OutgoingMessage, direct bool, userID snowflake.ID) gateway.MessageRef {
	m.nextID++
	ref := gateway.MessageRef{ChannelID: channelID, ID: m.nextID}
	m.sent = append(m.sent, &Sent{Ref: ref, Msg: msg, Direct: direct, UserID: userID})
	return ref
}

func (m *Messenger) Send(_ context.Context, channelID snowflake.ID, msg gateway.OutgoingMessage) (gateway.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return gateway.MessageRef{}, m.SendErr
	}
	return m.record(channelID, msg, false, 0), nil
}

func (m *Messenger) Edit(_ context.Context, ref gateway.MessageRef, msg gateway.OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits[ref] = append(m.edits[ref], msg)
	return nil
}

func (m *Messenger) Delete(_ context.Context, refs ...gateway.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sent {
		if slices.Contains(refs, s.Ref) {
			s.Deleted = true
		}
	}
	return nil
}

func (m *Messenger) AddReaction(_ context.Context, ref gateway.MessageRef, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions[ref] = append(m.reactions[ref], emoji)
	return nil
}

func (m *Messenger) ClearReactions(_ context.Context, ref gateway.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reactions, ref)
	m.cleared++
	return nil
}

func (m *Messenger) ClearEmojiReactions(_ context.Context, ref gateway.MessageRef, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions[ref] = slices.DeleteFunc(m.reactions[ref], func(e string) bool { return gateway.SameEmoji(e, emoji) })
	m.removed = append(m.removed, fmt.Sprintf("%d:%s:*", ref.ID, emoji))
	return nil
}

func (m *Messenger) RemoveUserReaction(_ context.Context, ref gateway.MessageRef, emoji string, userID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, fmt.Sprintf("%d:%s:%d", ref.ID, emoji, userID))
	return nil
}

func (m *Messenger) SendDirect(_ context.Context, userID snowflake.ID, msg gateway.OutgoingMessage) (gateway.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return gateway.MessageRef{}, m.SendErr
	}
	return m.record(userID, msg, true, userID), nil
}

// Sent returns a snapshot of every message sent so far.
func (m *Messenger) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	for i, s := range m.sent {
		out[i] = *s
	}
	return out
}

// Last returns the most recently sent message.
func (m *Messenger) Last() (Sent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Sent{}, false
	}
	return *m.sent[len(m.sent)-1], true
}

// Edits returns the edits applied to a message.
func (m *Messenger) Edits(ref gateway.MessageRef) []gateway.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.edits[ref])
}

// Reactions returns the reactions currently attached to a message.
func (m *Messenger) Reactions(ref gateway.MessageRef) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.reactions[ref])
}

// RemovedReactions returns "messageID:emoji:userID" for every removed user
// reaction and "messageID:emoji:*" for every emoji cleared from a message.
func (m *Messenger) RemovedReactions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.removed)
}

// Remaining returns the messages that were sent to channels and not deleted.
func (m *Messenger) Remaining() []Sent {
	var out []Sent
	for _, s := range m.Sent() {
		if !s.Direct && !s.Deleted {
			out = append(out, s)
		}
	}
	return out
}

// Directs returns the direct messages sent to a user.
func (m *Messenger) Directs(userID snowflake.ID) []Sent {
	var out []Sent
	for _, s := range m.Sent() {
		if s.Direct && s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// ErrUnexpectedEvent is returned by Waiter when a scripted event does not
// satisfy the predicate of the wait it was given to.
var ErrUnexpectedEvent = errors.New("scripted event rejected by predicate")

// Step is one scripted answer to a WaitFor call.
type Step struct {
	Event gateway.Event
	Err   error
}

// Reply scripts a message from the user in the channel.
func Reply(channelID, userID snowflake.ID, content string, mentions ...snowflake.ID) Step {
	return Step{Event: gateway.MessageEvent{
		ID:              snowflake.ID(time.Now().UnixNano()),
		ChannelID:       channelID,
		AuthorID:        userID,
		Content:         content,
		ChannelMentions: mentions,
	}}
}

// React scripts a reaction by the user on the last message sent before the wait.
func React(userID snowflake.ID, emoji string) Step {
	return Step{Event: gateway.ReactionEvent{UserID: userID, Emoji: emoji, Added: true}}
}

// Timeout scripts an expired wait.
func Timeout() Step {
	return Step{Err: gateway.ErrWaitTimeout}
}

// Waiter answers WaitFor calls from a script. A reaction step with no
// message id targets the last message the Messenger sent to a channel.
// An exhausted script times out.
type Waiter struct {
	Messenger *Messenger

	mu    sync.Mutex
	steps []Step
	calls int
}

var _ gateway.Waiter = (*Waiter)(nil)

// NewWaiter creates a Waiter that plays the given steps in order.
func NewWaiter(messenger *Messenger, steps ...Step) *Waiter {
	return &Waiter{Messenger: messenger, steps: steps}
}

func (w *Waiter) WaitFor(
	ctx context.Context,
	kind gateway.Kind,
	_ time.Duration,
	match func(gateway.Event) bool,
) (gateway.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.calls++
	if len(w.steps) == 0 {
		w.mu.Unlock()
		return nil, gateway.ErrWaitTimeout
	}
	step := w.steps[0]
	w.steps = w.steps[1:]
	w.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}

	event := step.Event
	if reaction, ok := event.(gateway.ReactionEvent); ok && reaction.MessageID == 0 && w.Messenger != nil {
		for _, s := range slices.Backward(w.Messenger.Sent()) {
			if !s.Direct {
				reaction.MessageID = s.Ref.ID
				reaction.ChannelID = s.Ref.ChannelID
				break
			}
		}
		event = reaction
	}

	if event.Kind() != kind || !match(event) {
		return nil, fmt.Errorf("%w: %+v", ErrUnexpectedEvent, event)
	}
	return event, nil
}

// Calls returns how many waits were made.
func (w *Waiter) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// Pending returns how many scripted steps are left.
func (w *Waiter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.steps)
}
