// Package detector provides hand and body pose landmark types and detection interfaces.
package detector

import "strings"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Body pose landmark indices following the MediaPipe pose convention.
// Only the arm joints are named; the full set has NumPoseLandmarks points.
const (
	PoseLeftShoulder  = 11
	PoseRightShoulder = 12
	PoseLeftElbow     = 13
	PoseRightElbow    = 14
	PoseLeftWrist     = 15
	PoseRightWrist    = 16
	NumPoseLandmarks  = 33
)

// Side is the handedness label reported by the estimator for the mirrored frame.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "Left"
	SideRight Side = "Right"
)

// ParseSide converts a handedness label to a Side, ignoring case.
// Unknown labels return SideNone.
func ParseSide(label string) Side {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "left":
		return SideLeft
	case "right":
		return SideRight
	default:
		return SideNone
	}
}

// Opposite returns the other side. SideNone stays SideNone.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}

// Point3D represents a normalized landmark. X and Y are in [0,1] relative to
// the frame; Z is the estimator's relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Side                  `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// PoseLandmarks represents a full body pose observation.
type PoseLandmarks struct {
	Points [NumPoseLandmarks]Point3D `json:"points"`
	Score  float64                   `json:"score"`
}

// Observation is everything the estimator reported for one frame.
// Pose is nil when no body was detected.
type Observation struct {
	Hands []HandLandmarks `json:"hands"`
	Pose  *PoseLandmarks  `json:"pose,omitempty"`
}

// HasPose reports whether a body pose was detected.
func (o *Observation) HasPose() bool {
	return o != nil && o.Pose != nil
}
