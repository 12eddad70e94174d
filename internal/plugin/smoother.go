package plugin

import (
	"image"
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

/* Kalman filter props, in pixels per frame */
const (
	smoothStep         = 1.0
	smoothAccelStdDev  = 2.0
	smoothMeasureNoise = 4.0
)

// Smoother filters the aim end point with a constant velocity Kalman filter
// so actuators do not chase landmark jitter. It is not safe for concurrent
// use.
type Smoother struct {
	filter *kalman_filter.Kalman2D
}

// NewSmoother creates a Smoother with no history.
func NewSmoother() *Smoother {
	return &Smoother{}
}

// Reset forgets the filter state. The next point starts a new track.
func (s *Smoother) Reset() {
	s.filter = nil
}

// Smooth feeds p to the filter and returns the filtered point. The first
// point after a reset is returned unchanged.
func (s *Smoother) Smooth(p image.Point) (image.Point, error) {
	x, y := float64(p.X), float64(p.Y)
	if s.filter == nil {
		s.filter = kalman_filter.NewKalman2D(
			smoothStep, 0, 0,
			smoothAccelStdDev, smoothMeasureNoise, smoothMeasureNoise,
			kalman_filter.WithState2D(x, y),
		)
		return p, nil
	}

	s.filter.Predict()
	if err := s.filter.Update(x, y); err != nil {
		return p, errors.Wrap(err, "update aim filter")
	}
	fx, fy := s.filter.GetState()
	return image.Pt(int(math.Round(fx)), int(math.Round(fy))), nil
}
