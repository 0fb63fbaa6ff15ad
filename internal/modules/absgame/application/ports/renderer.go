package ports

import (
	"time"

	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
)

// Animation is a rendered flash sequence.
type Animation struct {
	Name        string
	ContentType string
	Data        []byte
	// Duration is the exact playback time of one loop.
	Duration time.Duration
}

// Renderer defines the interface for rendering the flash sequence of a game.
type Renderer interface {
	// RenderSequence renders the targets flashing in order.
	RenderSequence(targets []domain.Target) (Animation, error)
}
