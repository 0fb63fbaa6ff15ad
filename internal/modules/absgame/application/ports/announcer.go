package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/cirquebot/internal/gateway"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
)

// LobbyView is the state shown on the lobby message.
type LobbyView struct {
	Players []snowflake.ID
	// Remaining is zero once the lobby has closed.
	Remaining time.Duration
}

// CallView is the state shown when a target goes live.
type CallView struct {
	Round int
	Total int
	Alive []snowflake.ID
}

// Announcer defines the interface for posting game announcements to a channel.
type Announcer interface {
	// OpenLobby posts the lobby message.
	OpenLobby(ctx context.Context, channelID snowflake.ID, view LobbyView) (gateway.MessageRef, error)

	// UpdateLobby refreshes the lobby message.
	UpdateLobby(ctx context.Context, ref gateway.MessageRef, view LobbyView) error

	// Start posts the game directions together with the animation.
	Start(ctx context.Context, channelID snowflake.ID, animation Animation) error

	// Call announces the target that is now live.
	Call(ctx context.Context, channelID snowflake.ID, view CallView) error

	// Deaths announces the players killed in one round.
	Deaths(ctx context.Context, channelID snowflake.ID, killed []snowflake.ID) error

	// Disqualified announces a player eliminated for acting early.
	Disqualified(ctx context.Context, channelID snowflake.ID, player snowflake.ID) error

	// Result announces the winners or the collective loss.
	Result(ctx context.Context, channelID snowflake.ID, result domain.Result) error
}
