package infrastructure

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"time"

	"golang.org/x/image/vector"

	"github.com/sglre6355/cirquebot/internal/modules/absgame/application/ports"
	"github.com/sglre6355/cirquebot/internal/modules/absgame/domain"
)

// AnimationName is the file name of the rendered sequence.
const AnimationName = "abs.gif"

// FrameTiming holds the display time of each kind of frame.
type FrameTiming struct {
	Diagram  time.Duration
	Interval time.Duration
	Flash    time.Duration
	// Ending replaces the duration of the very last frame.
	Ending time.Duration
}

// DefaultFrameTiming returns the standard flash pacing.
func DefaultFrameTiming() FrameTiming {
	return FrameTiming{
		Diagram:  6000 * time.Millisecond,
		Interval: 3000 * time.Millisecond,
		Flash:    60 * time.Millisecond,
		Ending:   1500 * time.Millisecond,
	}
}

const (
	markerSize = 42
	margin     = 10
)

const (
	colorBackground uint8 = iota
	colorArena
	colorSlot
	colorNeutral
	colorFlash
)

var palette = color.Palette{
	colorBackground: color.RGBA{0x1e, 0x1f, 0x22, 0xff},
	colorArena:      color.RGBA{0x4e, 0x50, 0x58, 0xff},
	colorSlot:       color.RGBA{0x80, 0x84, 0x8e, 0xff},
	colorNeutral:    color.RGBA{0x5b, 0x2c, 0x83, 0xff},
	colorFlash:      color.RGBA{0xe8, 0xc6, 0xff, 0xff},
}

// GIFRenderer draws the flash sequence of a game as an animated GIF.
type GIFRenderer struct {
	table  *domain.Table
	timing FrameTiming
	bounds image.Rectangle
}

// NewGIFRenderer creates a renderer sized to fit every target in the table.
func NewGIFRenderer(table *domain.Table, timing FrameTiming) *GIFRenderer {
	var maxX, maxY int
	for _, t := range table.All() {
		maxX = max(maxX, t.Position.X)
		maxY = max(maxY, t.Position.Y)
	}
	return &GIFRenderer{
		table:  table,
		timing: timing,
		bounds: image.Rect(0, 0, maxX+markerSize+margin, maxY+markerSize+margin),
	}
}

// RenderSequence renders the diagram, then every target flashing in order
// with an interval frame after each flash. The returned duration is the exact
// sum of the frame delays.
func (r *GIFRenderer) RenderSequence(targets []domain.Target) (ports.Animation, error) {
	if len(targets) == 0 {
		return ports.Animation{}, errors.New("no targets to render")
	}

	diagram := r.newFrame()
	for _, t := range r.table.All() {
		drawRing(diagram, center(t.Position), markerSize/2, 3, colorSlot)
	}

	interval := r.newFrame()
	for _, t := range targets {
		drawDisc(interval, center(t.Position), markerSize/2, colorNeutral)
	}

	anim := &gif.GIF{LoopCount: -1}
	anim.Image = append(anim.Image, diagram, interval)
	anim.Delay = append(anim.Delay, delay(r.timing.Diagram), delay(r.timing.Interval))
	for _, t := range targets {
		flash := cloneFrame(interval)
		drawDisc(flash, center(t.Position), markerSize/2, colorFlash)
		anim.Image = append(anim.Image, flash, interval)
		anim.Delay = append(anim.Delay, delay(r.timing.Flash), delay(r.timing.Interval))
	}
	anim.Delay[len(anim.Delay)-1] = delay(r.timing.Ending)

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return ports.Animation{}, fmt.Errorf("failed to encode animation: %w", err)
	}

	var total time.Duration
	for _, d := range anim.Delay {
		total += time.Duration(d) * 10 * time.Millisecond
	}

	return ports.Animation{
		Name:        AnimationName,
		ContentType: "image/gif",
		Data:        buf.Bytes(),
		Duration:    total,
	}, nil
}

// newFrame returns a blank arena.
func (r *GIFRenderer) newFrame() *image.Paletted {
	frame := image.NewPaletted(r.bounds, palette)
	mid := image.Pt(r.bounds.Dx()/2, r.bounds.Dy()/2)
	radius := min(r.bounds.Dx(), r.bounds.Dy())/2 - margin/2
	drawRing(frame, mid, radius, 4, colorArena)
	return frame
}

func cloneFrame(src *image.Paletted) *image.Paletted {
	dst := image.NewPaletted(src.Rect, src.Palette)
	copy(dst.Pix, src.Pix)
	return dst
}

func center(p domain.Point) image.Point {
	return image.Pt(p.X+markerSize/2, p.Y+markerSize/2)
}

// delay converts d to GIF delay units of 10ms.
func delay(d time.Duration) int {
	return int(d / (10 * time.Millisecond))
}

func drawDisc(img *image.Paletted, c image.Point, radius int, index uint8) {
	z := vector.NewRasterizer(img.Rect.Dx(), img.Rect.Dy())
	circlePath(z, c, float32(radius), false)
	fill(img, z, index)
}

func drawRing(img *image.Paletted, c image.Point, radius, width int, index uint8) {
	z := vector.NewRasterizer(img.Rect.Dx(), img.Rect.Dy())
	circlePath(z, c, float32(radius), false)
	if inner := radius - width; inner > 0 {
		circlePath(z, c, float32(inner), true)
	}
	fill(img, z, index)
}

// kappa places cubic control points so that four curves approximate a circle.
const kappa = 0.5522847

// circlePath adds a closed circle to z. A reversed circle inside another one
// cuts a hole out of it.
func circlePath(z *vector.Rasterizer, c image.Point, r float32, reverse bool) {
	cx, cy := float32(c.X)+0.5, float32(c.Y)+0.5
	k := r * kappa
	z.MoveTo(cx+r, cy)
	if reverse {
		z.CubeTo(cx+r, cy-k, cx+k, cy-r, cx, cy-r)
		z.CubeTo(cx-k, cy-r, cx-r, cy-k, cx-r, cy)
		z.CubeTo(cx-r, cy+k, cx-k, cy+r, cx, cy+r)
		z.CubeTo(cx+k, cy+r, cx+r, cy+k, cx+r, cy)
	} else {
		z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
		z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
		z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
		z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	}
	z.ClosePath()
}

// fill paints every pixel the path covers at least half with the palette
// entry index. Frames stay free of blended colors.
func fill(img *image.Paletted, z *vector.Rasterizer, index uint8) {
	mask := image.NewAlpha(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	for y := range mask.Rect.Dy() {
		for x := range mask.Rect.Dx() {
			if mask.AlphaAt(x, y).A >= 0x80 {
				img.SetColorIndex(img.Rect.Min.X+x, img.Rect.Min.Y+y, index)
			}
		}
	}
}
