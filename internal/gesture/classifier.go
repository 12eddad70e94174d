// Package gesture recognizes the activation gesture and selects the hand
// that should drive tracking.
package gesture

import "github.com/ayusman/orion/internal/detector"

// extended reports whether a fingertip is above its preceding joint.
// Image Y grows downward, so "above" means a smaller Y.
func extended(hand *detector.HandLandmarks, tip, joint int) bool {
	return hand.Points[tip].Y < hand.Points[joint].Y
}

// curled reports whether a fingertip is below its preceding joint.
func curled(hand *detector.HandLandmarks, tip, joint int) bool {
	return hand.Points[tip].Y > hand.Points[joint].Y
}

// IsActivation reports whether the hand shows the activation gesture:
// index and middle fingers extended, ring and pinky fingers curled.
func IsActivation(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}
	return extended(hand, detector.IndexTip, detector.IndexDIP) &&
		extended(hand, detector.MiddleTip, detector.MiddleDIP) &&
		curled(hand, detector.RingTip, detector.RingDIP) &&
		curled(hand, detector.PinkyTip, detector.PinkyDIP)
}
