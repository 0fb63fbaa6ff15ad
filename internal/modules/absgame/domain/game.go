package domain

import (
	"math/rand/v2"
	"slices"

	"github.com/disgoorg/snowflake/v2"
)

// DefaultFlashes is the number of targets called per game.
const DefaultFlashes = 4

// Phase is the stage a game is in.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseAnnouncing
	PhaseCalling
	PhaseResolved
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseAnnouncing:
		return "announcing"
	case PhaseCalling:
		return "calling"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// InputResult describes what a player's message or typing did to the game.
type InputResult int

const (
	// InputIgnored means the input had no effect.
	InputIgnored InputResult = iota
	// InputJoined means the author joined the lobby.
	InputJoined
	// InputGuessed means the message was recorded as the author's guess.
	InputGuessed
	// InputDisqualified means the author was eliminated for acting early.
	InputDisqualified
)

// Result is the final standing of a resolved game.
type Result struct {
	Winners []snowflake.ID
	// Losers holds every eliminated player in elimination order.
	Losers []snowflake.ID
}

// Won reports whether anyone survived.
func (r Result) Won() bool {
	return len(r.Winners) > 0
}

// Game is the state of one elimination game. It is not safe for concurrent
// use; callers serialize access.
type Game struct {
	phase   Phase
	roster  []snowflake.ID
	targets []Target
	round   int

	alive   []snowflake.ID
	dead    []snowflake.ID
	guesses map[snowflake.ID]string
}

// NewGame opens a lobby with the starter as the first player.
func NewGame(starter snowflake.ID) *Game {
	return &Game{
		phase:   PhaseLobby,
		roster:  []snowflake.ID{starter},
		round:   -1,
		guesses: make(map[snowflake.ID]string),
	}
}

func (g *Game) Phase() Phase { return g.phase }

// Roster returns the players in join order.
func (g *Game) Roster() []snowflake.ID { return slices.Clone(g.roster) }

// Alive returns the surviving players in join order.
func (g *Game) Alive() []snowflake.ID { return slices.Clone(g.alive) }

// Dead returns the eliminated players in elimination order.
func (g *Game) Dead() []snowflake.ID { return slices.Clone(g.dead) }

// Targets returns the selected targets in calling order.
func (g *Game) Targets() []Target { return slices.Clone(g.targets) }

// Round returns the zero-based index of the live target, or -1 before the first call.
func (g *Game) Round() int { return g.round }

// Live returns the target currently being called.
func (g *Game) Live() (Target, bool) {
	if g.phase != PhaseCalling || g.round < 0 {
		return Target{}, false
	}
	return g.targets[g.round], true
}

// Join adds a player to the lobby. It reports whether the roster changed.
func (g *Game) Join(player snowflake.ID) bool {
	if g.phase != PhaseLobby || slices.Contains(g.roster, player) {
		return false
	}
	g.roster = append(g.roster, player)
	return true
}

// Freeze closes the lobby and fixes the calling sequence.
func (g *Game) Freeze(targets []Target) {
	if g.phase != PhaseLobby {
		return
	}
	g.phase = PhaseAnnouncing
	g.targets = slices.Clone(targets)
	g.alive = slices.Clone(g.roster)
}

// Input applies a message from a player.
func (g *Game) Input(player snowflake.ID, content string) InputResult {
	switch g.phase {
	case PhaseLobby:
		if g.Join(player) {
			return InputJoined
		}
	case PhaseAnnouncing:
		if g.eliminate(player) {
			return InputDisqualified
		}
	case PhaseCalling:
		if slices.Contains(g.alive, player) {
			g.guesses[player] = content
			return InputGuessed
		}
	}
	return InputIgnored
}

// Typing applies a typing indicator from a player. Only the announcement
// phase forbids typing.
func (g *Game) Typing(player snowflake.ID) InputResult {
	if g.phase == PhaseAnnouncing && g.eliminate(player) {
		return InputDisqualified
	}
	return InputIgnored
}

func (g *Game) eliminate(player snowflake.ID) bool {
	i := slices.Index(g.alive, player)
	if i < 0 {
		return false
	}
	g.alive = slices.Delete(g.alive, i, i+1)
	g.dead = append(g.dead, player)
	return true
}

// Call makes the next target live and clears the guesses. It reports false
// once every target has been called or nobody is left alive.
func (g *Game) Call() (Target, bool) {
	if g.phase != PhaseAnnouncing && g.phase != PhaseCalling {
		return Target{}, false
	}
	if len(g.alive) == 0 || g.round+1 >= len(g.targets) {
		return Target{}, false
	}
	g.round++
	g.phase = PhaseCalling
	clear(g.guesses)
	return g.targets[g.round], true
}

// Evaluate judges the guesses for the live target and eliminates every
// surviving player whose latest guess is missing or wrong. The killed players
// are returned in join order.
func (g *Game) Evaluate() []snowflake.ID {
	target, ok := g.Live()
	if !ok {
		return nil
	}

	var killed []snowflake.ID
	for _, player := range g.alive {
		guess, guessed := g.guesses[player]
		if !guessed || !Match(guess, target, g.targets) {
			killed = append(killed, player)
		}
	}
	for _, player := range killed {
		g.eliminate(player)
	}
	clear(g.guesses)
	return killed
}

// Over reports whether the game can make no further progress.
func (g *Game) Over() bool {
	if g.phase == PhaseResolved {
		return true
	}
	if g.phase == PhaseLobby {
		return false
	}
	return len(g.alive) == 0
}

// Resolve ends the game and returns the final standing.
func (g *Game) Resolve() Result {
	g.phase = PhaseResolved
	if len(g.alive) > 0 {
		return Result{Winners: slices.Clone(g.alive), Losers: slices.Clone(g.dead)}
	}
	return Result{Losers: slices.Clone(g.dead)}
}

// SelectTargets draws k distinct targets uniformly without replacement. The
// order of the result is the calling order.
func SelectTargets(all []Target, k int, rng *rand.Rand) []Target {
	if k > len(all) {
		k = len(all)
	}
	if k <= 0 {
		return nil
	}
	perm := rng.Perm(len(all))
	selected := make([]Target, k)
	for i := range k {
		selected[i] = all[perm[i]]
	}
	return selected
}
