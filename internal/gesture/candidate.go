package gesture

import (
	"image"

	"github.com/ayusman/orion/internal/detector"
)

// Candidate is the best gesture-passing hand of a frame.
type Candidate struct {
	Hand     *detector.HandLandmarks `json:"-"`
	Box      BoundingBox             `json:"box"`
	Area     float64                 `json:"area"`
	Side     detector.Side           `json:"side"`
	AimPoint image.Point             `json:"aim_point"`
}

// SelectCandidate returns the gesture-passing hand with the largest bounding
// box area, or nil when no hand shows the activation gesture. On an exact
// area tie the earlier hand wins. Hands without a Left/Right label are skipped.
//
// The returned Candidate points into hands; it is only valid for the frame.
func SelectCandidate(hands []detector.HandLandmarks, width, height int) *Candidate {
	var best *Candidate

	for i := range hands {
		hand := &hands[i]
		if !IsActivation(hand) {
			continue
		}

		side := detector.ParseSide(string(hand.Handedness))
		if side == detector.SideNone {
			continue
		}

		box := ComputeBoundingBox(hand, width, height)
		area := box.Area()
		if best != nil && area <= best.Area {
			continue
		}

		best = &Candidate{
			Hand:     hand,
			Box:      box,
			Area:     area,
			Side:     side,
			AimPoint: AimPoint(hand, width, height),
		}
	}

	return best
}

// AimPoint returns the pixel midpoint between the index and middle fingertips.
func AimPoint(hand *detector.HandLandmarks, width, height int) image.Point {
	index := toPixel(hand.Points[detector.IndexTip], width, height)
	middle := toPixel(hand.Points[detector.MiddleTip], width, height)
	return image.Pt((index.X+middle.X)/2, (index.Y+middle.Y)/2)
}

// toPixel de-normalizes a landmark, truncating toward zero.
func toPixel(p detector.Point3D, width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}
