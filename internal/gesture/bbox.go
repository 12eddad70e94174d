package gesture

import (
	"image"
	"math"

	"github.com/ayusman/orion/internal/detector"
)

// BoundingBox is an axis-aligned box in pixel space.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// ComputeBoundingBox returns the pixel-space box around all hand landmarks
// for a frame of the given size.
func ComputeBoundingBox(hand *detector.HandLandmarks, width, height int) BoundingBox {
	box := BoundingBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}

	w, h := float64(width), float64(height)
	for _, p := range hand.Points {
		x, y := p.X*w, p.Y*h
		box.MinX = math.Min(box.MinX, x)
		box.MinY = math.Min(box.MinY, y)
		box.MaxX = math.Max(box.MaxX, x)
		box.MaxY = math.Max(box.MaxY, y)
	}

	return box
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 {
	return math.Max(0, b.MaxX-b.MinX)
}

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 {
	return math.Max(0, b.MaxY-b.MinY)
}

// Area returns width × height. It is never negative.
func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Rect converts the box to integer pixel coordinates, truncating like the
// drawing layer does.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(int(b.MinX), int(b.MinY), int(b.MaxX), int(b.MaxY))
}
