package tracking

import (
	"time"

	"github.com/ayusman/orion/internal/detector"
	"github.com/ayusman/orion/internal/gesture"
)

// Frame is one set of estimator results.
type Frame struct {
	Hands []detector.HandLandmarks
	Pose  *detector.PoseLandmarks

	// Width and Height are the pixel dimensions of the frame.
	Width  int
	Height int

	// Timestamp is when the frame was captured. The zero value means now,
	// according to the machine's clock.
	Timestamp time.Time
}

// Output is the result of processing one frame.
type Output struct {
	State State         `json:"state"`
	Side  detector.Side `json:"side,omitempty"`

	// Candidate is the best gesture-passing hand while Idle.
	Candidate *gesture.Candidate `json:"candidate,omitempty"`

	// Arm is set while Tracking when the body pose is visible.
	Arm *ArmVector `json:"arm,omitempty"`

	// HoldProgress and LossProgress run from 0 to 1 as the gesture hold and
	// the pose loss clock approach their thresholds.
	HoldProgress float64 `json:"hold_progress"`
	LossProgress float64 `json:"loss_progress"`

	// Transition is set on the frame that changed State.
	Transition *Transition `json:"transition,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Machine is the activation/tracking state machine. It owns the Session
// and is not safe for concurrent use; callers serialize Update and Reset.
type Machine struct {
	config    Config
	clock     Clock
	state     State
	session   Session
	listeners []func(Transition)
}

// NewMachine creates a Machine in the Idle state. Unset thresholds take their
// defaults and a nil clock means SystemClock.
func NewMachine(config Config, clock Clock) *Machine {
	if clock == nil {
		clock = SystemClock
	}
	return &Machine{
		config: config.withDefaults(),
		clock:  clock,
		state:  Idle,
	}
}

// OnTransition registers fn to be called synchronously on every state change.
func (m *Machine) OnTransition(fn func(Transition)) {
	if fn == nil {
		return
	}
	m.listeners = append(m.listeners, fn)
}

// Config returns the thresholds in use.
func (m *Machine) Config() Config {
	return m.config
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session {
	return m.session
}

// Update advances the machine by one frame.
func (m *Machine) Update(frame Frame) Output {
	now := frame.Timestamp
	if now.IsZero() {
		now = m.clock.Now()
	}

	candidate := gesture.SelectCandidate(frame.Hands, frame.Width, frame.Height)
	posePresent := frame.Pose != nil

	var transition *Transition
	switch m.state {
	case Idle:
		transition = m.activate(candidate, now)
	case Tracking:
		transition = m.deactivate(candidate, now)
		if transition == nil {
			transition = m.checkLoss(posePresent, now)
		}
	}

	out := Output{
		State:        m.state,
		Side:         m.session.TrackedSide,
		HoldProgress: progress(m.session.ActivationStart, now, m.config.HoldDuration),
		LossProgress: progress(m.session.LostStart, now, m.config.LossTimeout),
		Transition:   transition,
		Timestamp:    now,
	}

	switch m.state {
	case Idle:
		out.Candidate = candidate
	case Tracking:
		if arm, ok := ComputeArmVector(frame.Pose, frame.Width, frame.Height, m.session.TrackedSide); ok {
			out.Arm = &arm
		}
	}

	if transition != nil {
		m.notify(*transition)
	}

	return out
}

// Reset forces the machine back to Idle and clears the session. A reset
// transition is reported only when tracking was active.
func (m *Machine) Reset() {
	if m.state == Tracking {
		m.notify(*m.stop(ReasonReset, m.clock.Now()))
		return
	}
	m.session.Reset()
}

// stop leaves Tracking with a full session reset.
func (m *Machine) stop(reason Reason, now time.Time) *Transition {
	t := &Transition{
		From:   Tracking,
		To:     Idle,
		Reason: reason,
		Side:   m.session.TrackedSide,
		At:     now,
	}

	m.session.Reset()
	m.state = Idle
	return t
}

func (m *Machine) notify(t Transition) {
	for _, fn := range m.listeners {
		fn(t)
	}
}

// progress returns how far a clock started at start has run toward limit.
func progress(start, now time.Time, limit time.Duration) float64 {
	if start.IsZero() || limit <= 0 {
		return 0
	}
	p := float64(now.Sub(start)) / float64(limit)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
