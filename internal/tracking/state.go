package tracking

import (
	"fmt"
	"time"

	"github.com/ayusman/orion/internal/detector"
)

// State is the observable mode of the state machine.
type State int

const (
	// Idle waits for a held activation gesture.
	Idle State = iota
	// Tracking follows the committed arm.
	Tracking
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "tracking":
		*s = Tracking
	default:
		return fmt.Errorf("unknown tracker state %q", text)
	}
	return nil
}

// Reason explains why a transition happened.
type Reason string

const (
	ReasonActivated   Reason = "activated"
	ReasonDeactivated Reason = "deactivated"
	ReasonPoseLost    Reason = "pose_lost"
	ReasonReset       Reason = "reset"
)

// Transition describes a change of State.
type Transition struct {
	From   State         `json:"from"`
	To     State         `json:"to"`
	Reason Reason        `json:"reason"`
	Side   detector.Side `json:"side"`
	At     time.Time     `json:"at"`
}

// Session is the mutable state of one tracking run. Zero values mean unset.
//
// TrackedSide is set while Tracking or while an activation hold has a
// recorded candidate. LostStart is only set while Tracking. TrackedArea is
// either zero or above the configured minimum box area.
type Session struct {
	ActivationStart time.Time
	LostStart       time.Time
	TrackedArea     float64
	TrackedSide     detector.Side
}

// Reset clears every field. It is safe to call repeatedly.
func (s *Session) Reset() {
	*s = Session{}
}

// Holding reports whether an activation or deactivation hold is running.
func (s Session) Holding() bool {
	return !s.ActivationStart.IsZero()
}

// Losing reports whether the pose loss clock is running.
func (s Session) Losing() bool {
	return !s.LostStart.IsZero()
}
