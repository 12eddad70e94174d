package tracking

import "time"

// checkLoss ends tracking once the body pose has been missing for LossTimeout
// without interruption. One frame with a pose restarts the clock.
func (m *Machine) checkLoss(posePresent bool, now time.Time) *Transition {
	s := &m.session

	if posePresent {
		s.LostStart = time.Time{}
		return nil
	}

	if !s.Losing() {
		s.LostStart = now
		return nil
	}

	if now.Sub(s.LostStart) < m.config.LossTimeout {
		return nil
	}

	return m.stop(ReasonPoseLost, now)
}
