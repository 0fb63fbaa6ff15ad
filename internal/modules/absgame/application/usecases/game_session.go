package usecases

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
	"github.com/sglre6355/cirquebot/internal/session"
)

// outboxSize bounds the announcements queued behind a slow gateway.
const outboxSize = 64

// Timing controls the pace of a game.
type Timing struct {
	// LobbyInterval is the time between lobby refreshes.
	LobbyInterval time.Duration
	// LobbyUpdates is the number of refreshes before the lobby closes.
	LobbyUpdates int
	// RoundInterval is the time each target stays live.
	RoundInterval time.Duration
}

// DefaultTiming returns a 30 second lobby and 3 second rounds.
func DefaultTiming() Timing {
	return Timing{
		LobbyInterval: 5 * time.Second,
		LobbyUpdates:  6,
		RoundInterval: 3 * time.Second,
	}
}

// GameOptions configures a GameSession.
type GameOptions struct {
	ChannelID snowflake.ID
	StarterID snowflake.ID
	// Pool is the set of targets the sequence is drawn from.
	Pool    []domain.Target
	Flashes int
	Rand    *rand.Rand
	Timing  Timing
	// TypingDisqualifies treats a typing indicator before the first call like a message.
	TypingDisqualifies bool

	Registry  *session.Registry
	Messenger gateway.Messenger
	Renderer  ports.Renderer
	Announcer ports.Announcer
	OnFinish  func(session.Outcome)
}

type effect func(ctx context.Context)

// GameSession runs one elimination game. Player input arrives through Handle
// on the dispatcher goroutine; Run drives the timers on its own goroutine.
// Both mutate the game under mu. Announcements go through an ordered outbox so
// that Handle never blocks on the gateway.
type GameSession struct {
	*session.Base

	pool               []domain.Target
	flashes            int
	rng                *rand.Rand
	timing             Timing
	typingDisqualifies bool
	renderer           ports.Renderer
	announcer          ports.Announcer

	outbox      chan effect
	outboxDone  chan struct{}
	outboxClose sync.Once

	mu        sync.Mutex
	game      *domain.Game
	lobbyRef  gateway.MessageRef
	remaining time.Duration
	stopPlay  context.CancelFunc
	closed    bool
}

// NewGameSession creates a game in the lobby phase with the starter as its
// first player. The session must be registered before Run is called.
func NewGameSession(parent context.Context, opts GameOptions) *GameSession {
	flashes := opts.Flashes
	if flashes <= 0 {
		flashes = domain.DefaultFlashes
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &GameSession{
		Base: session.NewBase(parent, session.BaseOptions{
			Kind:      "absgame",
			Scope:     Scope(),
			ChannelID: opts.ChannelID,
			Owner:     opts.StarterID,
			Messenger: opts.Messenger,
			Registry:  opts.Registry,
			OnFinish:  opts.OnFinish,
		}),
		pool:               opts.Pool,
		flashes:            flashes,
		rng:                rng,
		timing:             opts.Timing,
		typingDisqualifies: opts.TypingDisqualifies,
		renderer:           opts.Renderer,
		announcer:          opts.Announcer,
		outbox:             make(chan effect, outboxSize),
		outboxDone:         make(chan struct{}),
		game:               domain.NewGame(opts.StarterID),
	}
}

// Scope admits one game bot-wide.
func Scope() session.Scope {
	return session.GlobalScope("absgame")
}

// Phase returns the current phase of the game.
func (s *GameSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase()
}

// Roster returns the players in join order.
func (s *GameSession) Roster() []snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Roster()
}

// Handle consumes messages and typing indicators from the game channel that
// affect the game.
func (s *GameSession) Handle(event gateway.Event) bool {
	var (
		player  snowflake.ID
		content string
		typing  bool
	)
	switch e := event.(type) {
	case gateway.MessageEvent:
		if e.ChannelID != s.ChannelID() || e.AuthorBot {
			return false
		}
		player, content = e.AuthorID, e.Content
	case gateway.TypingEvent:
		if !s.typingDisqualifies || e.ChannelID != s.ChannelID() {
			return false
		}
		player, typing = e.UserID, true
	default:
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	var result domain.InputResult
	if typing {
		result = s.game.Typing(player)
	} else {
		result = s.game.Input(player, content)
	}

	logger := s.Logger().With("user_id", player.String(), "phase", s.game.Phase().String())
	switch result {
	case domain.InputJoined:
		logger.Info("player joined game")
		s.refreshLobbyLocked()
	case domain.InputGuessed:
		logger.Debug("recorded guess", "guess", content)
	case domain.InputDisqualified:
		logger.Info("disqualified player for early input", "typing", typing)
		s.enqueueLocked(func(ctx context.Context) {
			if err := s.announcer.Disqualified(ctx, s.ChannelID(), player); err != nil {
				logger.Warn("failed to announce disqualification", "error", err)
			}
		})
		if s.game.Over() && s.stopPlay != nil {
			s.stopPlay()
		}
	case domain.InputIgnored:
		if !typing {
			logger.Debug("ignored message from non-player")
		}
	}
	return result != domain.InputIgnored
}

// Run plays the game to completion and finishes the session. It must be
// called once, on its own goroutine.
func (s *GameSession) Run() {
	defer s.Recover()
	go s.drain()

	ctx := s.Context()
	if err := s.lobby(ctx); err != nil {
		s.abort(err)
		return
	}

	playCtx, stopPlay := context.WithCancel(ctx)
	defer stopPlay()

	targets := domain.SelectTargets(s.pool, s.flashes, s.rng)
	s.mu.Lock()
	s.stopPlay = stopPlay
	s.game.Freeze(targets)
	roster := s.game.Roster()
	s.mu.Unlock()

	s.Logger().Info("started game",
		"players", len(roster),
		"targets", targetNames(targets),
	)

	animation, err := s.renderer.RenderSequence(targets)
	if err != nil {
		s.closeOutbox()
		s.Fail(fmt.Errorf("failed to render sequence: %w", err))
		return
	}
	s.enqueue(func(ctx context.Context) {
		if err := s.announcer.Start(ctx, s.ChannelID(), animation); err != nil {
			s.Logger().Warn("failed to announce game start", "error", err)
		}
	})

	if err := s.play(playCtx, animation.Duration, len(targets)); err != nil && ctx.Err() != nil {
		s.abort(err)
		return
	}

	s.mu.Lock()
	result := s.game.Resolve()
	s.mu.Unlock()

	s.Logger().Info("resolved game", "winners", len(result.Winners), "losers", len(result.Losers))
	s.enqueue(func(ctx context.Context) {
		if err := s.announcer.Result(ctx, s.ChannelID(), result); err != nil {
			s.Logger().Warn("failed to announce result", "error", err)
		}
	})
	s.closeOutbox()
	s.Finish(session.OutcomeResolved, nil)
}

func (s *GameSession) lobby(ctx context.Context) error {
	countdown := session.Countdown{
		Interval: s.timing.LobbyInterval,
		Ticks:    s.timing.LobbyUpdates,
	}

	s.mu.Lock()
	s.remaining = countdown.Remaining(0)
	view := ports.LobbyView{Players: s.game.Roster(), Remaining: s.remaining}
	s.mu.Unlock()

	ref, err := s.announcer.OpenLobby(ctx, s.ChannelID(), view)
	if err != nil {
		return fmt.Errorf("failed to open lobby: %w", err)
	}

	s.mu.Lock()
	s.lobbyRef = ref
	s.mu.Unlock()

	s.Logger().Info("opened lobby", "duration", view.Remaining.String())

	return countdown.Run(ctx, func(i int) bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.remaining = countdown.Remaining(i + 1)
		s.refreshLobbyLocked()
		return true
	})
}

// play waits out the animation and then calls one target per round interval.
// The final tick only evaluates the last round.
func (s *GameSession) play(ctx context.Context, animation time.Duration, rounds int) error {
	s.mu.Lock()
	over := s.game.Over()
	s.mu.Unlock()
	if over {
		return nil
	}

	if err := session.Sleep(ctx, animation); err != nil {
		return err
	}

	countdown := session.Countdown{
		Interval:  s.timing.RoundInterval,
		Ticks:     rounds + 1,
		Immediate: true,
	}
	return countdown.Run(ctx, s.tick)
}

func (s *GameSession) tick(int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, live := s.game.Live(); live {
		killed := s.game.Evaluate()
		s.Logger().Info("evaluated round",
			"round", s.game.Round()+1,
			"target", previous.Name,
			"killed", len(killed),
		)
		if len(killed) > 0 {
			s.enqueueLocked(func(ctx context.Context) {
				if err := s.announcer.Deaths(ctx, s.ChannelID(), killed); err != nil {
					s.Logger().Warn("failed to announce deaths", "error", err)
				}
			})
		}
	}

	target, ok := s.game.Call()
	if !ok {
		return false
	}

	view := ports.CallView{
		Round: s.game.Round(),
		Total: len(s.game.Targets()),
		Alive: s.game.Alive(),
	}
	s.Logger().Debug("called target", "round", view.Round+1, "target", target.Name)
	s.enqueueLocked(func(ctx context.Context) {
		if err := s.announcer.Call(ctx, s.ChannelID(), view); err != nil {
			s.Logger().Warn("failed to announce call", "error", err)
		}
	})
	return true
}

func (s *GameSession) refreshLobbyLocked() {
	view := ports.LobbyView{Players: s.game.Roster(), Remaining: s.remaining}
	s.enqueueLocked(func(ctx context.Context) {
		s.mu.Lock()
		ref := s.lobbyRef
		s.mu.Unlock()
		if ref.IsZero() {
			return
		}
		if err := s.announcer.UpdateLobby(ctx, ref, view); err != nil {
			s.Logger().Warn("failed to update lobby", "error", err)
		}
	})
}

func (s *GameSession) abort(err error) {
	s.closeOutbox()
	if s.Finish(session.OutcomeCancelled, nil) {
		s.Logger().Info("stopped game early", "error", err)
	}
}

func (s *GameSession) enqueue(e effect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLocked(e)
}

func (s *GameSession) enqueueLocked(e effect) {
	if s.closed {
		return
	}
	select {
	case s.outbox <- e:
	default:
		s.Logger().Warn("dropped game announcement", "queued", len(s.outbox))
	}
}

func (s *GameSession) drain() {
	defer close(s.outboxDone)
	defer s.Recover()
	for {
		select {
		case e, ok := <-s.outbox:
			if !ok {
				return
			}
			e(s.Context())
		case <-s.Done():
			return
		}
	}
}

// closeOutbox stops accepting announcements and waits for the queued ones.
func (s *GameSession) closeOutbox() {
	s.outboxClose.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.outbox)
		s.mu.Unlock()
	})
	<-s.outboxDone
}

func targetNames(targets []domain.Target) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	return names
}

var _ session.Session = (*GameSession)(nil)
