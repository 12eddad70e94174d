// Package tracking turns per-frame landmark observations into the Idle and
// Tracking modes of the aiming controller and derives the aim vector.
package tracking

import (
	"time"

	"github.com/pkg/errors"
)

// Default thresholds.
const (
	// DefaultHoldDuration is how long a gesture must be held to activate or
	// deactivate tracking.
	DefaultHoldDuration = 1500 * time.Millisecond
	// DefaultLossTimeout is how long the body pose may be missing before
	// tracking gives up.
	DefaultLossTimeout = 3 * time.Second
	// DefaultAreaTolerance is the relative bounding box area change still
	// considered the same hand during an activation hold.
	DefaultAreaTolerance = 0.2
	// DefaultMinBoxArea is the smallest candidate area, in square pixels,
	// that may be committed to the session.
	DefaultMinBoxArea = 1e-6
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid tracking config")

// Config holds the tunable thresholds of the state machine.
type Config struct {
	HoldDuration  time.Duration `yaml:"hold_duration"`
	LossTimeout   time.Duration `yaml:"loss_timeout"`
	AreaTolerance float64       `yaml:"area_tolerance"`
	MinBoxArea    float64       `yaml:"min_box_area"`
}

// DefaultConfig returns the thresholds the controller was tuned with.
func DefaultConfig() Config {
	return Config{
		HoldDuration:  DefaultHoldDuration,
		LossTimeout:   DefaultLossTimeout,
		AreaTolerance: DefaultAreaTolerance,
		MinBoxArea:    DefaultMinBoxArea,
	}
}

// Validate checks that every threshold is usable.
func (c Config) Validate() error {
	if c.HoldDuration <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "hold_duration must be positive, got %s", c.HoldDuration)
	}
	if c.LossTimeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "loss_timeout must be positive, got %s", c.LossTimeout)
	}
	if c.AreaTolerance <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "area_tolerance must be positive, got %g", c.AreaTolerance)
	}
	if c.MinBoxArea <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "min_box_area must be positive, got %g", c.MinBoxArea)
	}
	return nil
}

// withDefaults replaces unset thresholds with their defaults.
func (c Config) withDefaults() Config {
	if c.HoldDuration <= 0 {
		c.HoldDuration = DefaultHoldDuration
	}
	if c.LossTimeout <= 0 {
		c.LossTimeout = DefaultLossTimeout
	}
	if c.AreaTolerance <= 0 {
		c.AreaTolerance = DefaultAreaTolerance
	}
	if c.MinBoxArea <= 0 {
		c.MinBoxArea = DefaultMinBoxArea
	}
	return c
}
