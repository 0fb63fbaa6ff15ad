package session

import (
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
)

// Scope is the unit of exclusivity for active sessions.
type Scope string

// ChannelScope returns a scope covering one channel for a feature.
func ChannelScope(feature string, channelID snowflake.ID) Scope {
	return Scope(feature + ":channel:" + channelID.String())
}

// GuildScope returns a scope covering one guild for a feature.
func GuildScope(feature string, guildID snowflake.ID) Scope {
	return Scope(feature + ":guild:" + guildID.String())
}

// GlobalScope returns a scope that admits one session of a feature bot-wide.
func GlobalScope(feature string) Scope {
	return Scope(feature + ":global")
}

// Session is one in-flight interactive dialogue.
type Session interface {
	ID() string
	Scope() Scope
	// Handle offers an event to the session and reports whether it was consumed.
	// It runs on the dispatcher goroutine and must not block.
	Handle(event gateway.Event) bool
}

// Registry holds at most one active session per scope.
type Registry struct {
	mu     sync.Mutex
	active map[Scope]Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[Scope]Session),
	}
}

// TryRegister claims the session's scope. It returns false, leaving the
// existing session in place, if the scope is already claimed.
func (r *Registry) TryRegister(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.active[s.Scope()]; ok {
		slog.Debug("rejected session registration",
			"scope", s.Scope(),
			"session_id", s.ID(),
			"active_session_id", existing.ID(),
		)
		return false
	}
	r.active[s.Scope()] = s
	slog.Debug("registered session", "scope", s.Scope(), "session_id", s.ID())
	return true
}

// Unregister releases the scope if it is still held by the session with the given id.
func (r *Registry) Unregister(scope Scope, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.active[scope]
	if !ok || existing.ID() != id {
		return false
	}
	delete(r.active, scope)
	slog.Debug("unregistered session", "scope", scope, "session_id", id)
	return true
}

// Active returns the session holding the scope, if any.
func (r *Registry) Active(scope Scope) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.active[scope]
	return s, ok
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Route offers the event to active sessions and reports whether one consumed it.
// It is installed as a bus interceptor so that consumed events skip normal dispatch.
func (r *Registry) Route(event gateway.Event) bool {
	r.mu.Lock()
	sessions := make([]Session, 0, len(r.active))
	for _, s := range r.active {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		if s.Handle(event) {
			return true
		}
	}
	return false
}
