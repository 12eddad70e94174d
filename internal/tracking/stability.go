package tracking

import (
	"math"
	"time"

	"github.com/ayusman/orion/internal/gesture"
)

// activate runs the Idle hold. A candidate has to stay within the area
// tolerance of the hold's first frame for HoldDuration; any frame without
// one cancels the hold.
func (m *Machine) activate(c *gesture.Candidate, now time.Time) *Transition {
	s := &m.session

	// Degenerate boxes cannot anchor the area comparison.
	if c == nil || c.Area <= m.config.MinBoxArea {
		s.Reset()
		return nil
	}

	if !s.Holding() || !m.stable(c.Area) {
		s.ActivationStart = now
		s.TrackedArea = c.Area
		s.TrackedSide = c.Side
		return nil
	}

	if now.Sub(s.ActivationStart) < m.config.HoldDuration {
		return nil
	}

	s.ActivationStart = time.Time{}
	m.state = Tracking
	return &Transition{
		From:   Idle,
		To:     Tracking,
		Reason: ReasonActivated,
		Side:   s.TrackedSide,
		At:     now,
	}
}

// stable reports whether area is within tolerance of the hold's area.
func (m *Machine) stable(area float64) bool {
	tracked := m.session.TrackedArea
	if tracked <= m.config.MinBoxArea {
		return false
	}
	return math.Abs(area-tracked)/tracked < m.config.AreaTolerance
}

// deactivate runs the Tracking hold. Any gesture-passing hand counts,
// whatever its size; a frame without one restarts the hold from zero.
func (m *Machine) deactivate(c *gesture.Candidate, now time.Time) *Transition {
	s := &m.session

	if c == nil {
		s.ActivationStart = time.Time{}
		return nil
	}

	if !s.Holding() {
		s.ActivationStart = now
		return nil
	}

	if now.Sub(s.ActivationStart) < m.config.HoldDuration {
		return nil
	}

	return m.stop(ReasonDeactivated, now)
}
