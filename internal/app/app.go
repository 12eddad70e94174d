// Package app wires the camera, the landmark detector and the tracking state
// machine into the running aiming pipeline.
package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/orion/internal/capture"
	"github.com/ayusman/orion/internal/detector"
	"github.com/ayusman/orion/internal/store"
	"github.com/ayusman/orion/internal/tracking"
)

// Broadcaster receives every frame's output, typically the overlay hub.
type Broadcaster interface {
	Broadcast(v any) error
}

// Actuator receives tracker events, typically the plugin dispatcher.
type Actuator interface {
	Transition(t tracking.Transition)
	Aim(out tracking.Output, width, height int)
}

// Actuators fans events out to several actuators in order.
type Actuators []Actuator

// Transition forwards t to every actuator.
func (as Actuators) Transition(t tracking.Transition) {
	for _, a := range as {
		a.Transition(t)
	}
}

// Aim forwards out to every actuator.
func (as Actuators) Aim(out tracking.Output, width, height int) {
	for _, a := range as {
		a.Aim(out, width, height)
	}
}

// Config holds the components and settings of the application.
type Config struct {
	Camera   capture.Config
	Detector detector.Config
	Tracking tracking.Config

	// Store, Broadcaster and Actuator are optional.
	Store       *store.Store
	Broadcaster Broadcaster
	Actuator    Actuator

	Logger *zap.Logger
	Clock  tracking.Clock
}

// App runs the frame pipeline and exposes its latest results.
type App struct {
	config   Config
	logger   *zap.Logger
	camera   capture.Camera
	detector detector.Detector

	// machineMu serializes every call into the state machine.
	machineMu sync.Mutex
	machine   *tracking.Machine

	mu      sync.RWMutex
	enabled bool
	mirror  bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	frameMu   sync.RWMutex
	output    tracking.Output
	jpeg      []byte
	seq       uint64
	listeners []func(tracking.Output)
}

// New creates an App. The MediaPipe detector is used when its service
// script can be found, the mock detector otherwise. Enabled and mirror
// start from the stored settings when a store is configured.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		config:  config,
		logger:  logger,
		camera:  capture.NewCamera(config.Camera),
		machine: tracking.NewMachine(config.Tracking, config.Clock),
		enabled: true,
		mirror:  config.Camera.Mirror,
	}
	a.output = tracking.Output{State: tracking.Idle}

	if config.Store != nil {
		settings := config.Store.Settings()
		a.enabled = settings.Bool(store.SettingTrackingEnabled, true)
		a.mirror = settings.Bool(store.SettingMirror, config.Camera.Mirror)
	}

	if mp, err := detector.NewMediaPipeDetector(config.Detector, logger.Named("detector")); err == nil {
		a.detector = mp
		logger.Info("using MediaPipe landmark detection")
	} else {
		logger.Warn("MediaPipe not available, using mock detector", zap.Error(err))
		a.detector = detector.NewMockDetector()
	}

	a.machine.OnTransition(a.handleTransition)
	return a
}

// handleTransition runs inside Update or Reset with machineMu held.
func (a *App) handleTransition(t tracking.Transition) {
	a.logger.Info("tracker transition",
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
		zap.String("reason", string(t.Reason)),
		zap.String("side", string(t.Side)),
	)

	if a.config.Store != nil {
		record := &store.Transition{
			From:       t.From.String(),
			To:         t.To.String(),
			Reason:     string(t.Reason),
			Side:       string(t.Side),
			OccurredAt: t.At,
		}
		if err := a.config.Store.Transitions().Create(record); err != nil {
			a.logger.Error("failed to record transition", zap.Error(err))
		}
	}

	if a.config.Actuator != nil {
		a.config.Actuator.Transition(t)
	}
}

// OnOutput registers fn to be called after every processed frame and after
// resets. fn must not block.
func (a *App) OnOutput(fn func(tracking.Output)) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// SetEnabled turns detection on or off. Disabling resets the tracker so
// tracking never resumes from a stale session.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if !changed {
		return
	}

	a.logger.Info("detection toggled", zap.Bool("enabled", enabled))
	if !enabled {
		a.Reset()
	}
	a.saveSetting(store.SettingTrackingEnabled, enabled)
}

// Enabled returns whether detection is currently enabled.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetMirror selects whether frames are flipped before detection. Flipping
// changes which physical arm a side label refers to, so the tracker is reset.
func (a *App) SetMirror(mirror bool) {
	a.mu.Lock()
	changed := a.mirror != mirror
	a.mirror = mirror
	a.mu.Unlock()

	if changed {
		a.Reset()
		a.saveSetting(store.SettingMirror, mirror)
	}
}

// Mirror returns whether frames are flipped before detection.
func (a *App) Mirror() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mirror
}

func (a *App) saveSetting(key string, value bool) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Settings().SetBool(key, value); err != nil {
		a.logger.Warn("failed to save setting", zap.String("key", key), zap.Error(err))
	}
}

// Reset forces the tracker back to Idle.
func (a *App) Reset() {
	a.machineMu.Lock()
	a.machine.Reset()
	now := a.clock().Now()
	a.machineMu.Unlock()

	a.publish(tracking.Output{State: tracking.Idle, Timestamp: now}, nil)
}

// State returns the tracker state.
func (a *App) State() tracking.State {
	a.machineMu.Lock()
	defer a.machineMu.Unlock()
	return a.machine.State()
}

// Output returns the result of the most recent frame.
func (a *App) Output() tracking.Output {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.output
}

// LatestJPEG returns the most recent annotated frame and its sequence number.
func (a *App) LatestJPEG() ([]byte, uint64) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.jpeg, a.seq
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector replaces the landmark detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Start opens the camera and starts the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.logger.Info("pipeline started", zap.Int("fps", a.camera.FPS()))
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.Camera().Close(); err != nil {
		a.logger.Warn("error closing camera", zap.Error(err))
	}
	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.logger.Warn("error closing detector", zap.Error(err))
		}
	}

	a.logger.Info("pipeline stopped")
}

func (a *App) clock() tracking.Clock {
	if a.config.Clock != nil {
		return a.config.Clock
	}
	return tracking.SystemClock
}

func (a *App) publish(out tracking.Output, jpeg []byte) {
	a.frameMu.Lock()
	a.output = out
	if jpeg != nil {
		a.jpeg = jpeg
		a.seq++
	}
	listeners := a.listeners
	a.frameMu.Unlock()

	for _, fn := range listeners {
		fn(out)
	}

	if a.config.Broadcaster != nil {
		if err := a.config.Broadcaster.Broadcast(out); err != nil {
			a.logger.Debug("broadcast failed", zap.Error(err))
		}
	}
}

// pipelineInterval converts the camera rate to a tick interval.
func pipelineInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
