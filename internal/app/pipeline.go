package app

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/orion/internal/capture"
	"github.com/ayusman/orion/internal/detector"
	"github.com/ayusman/orion/internal/overlay"
	"github.com/ayusman/orion/internal/tracking"
)

// runPipeline reads one frame per tick until stopCh closes:
//
//  1. mirror the frame when enabled
//  2. detect hands and body pose
//  3. advance the state machine
//  4. draw the overlay and publish the annotated JPEG
//
// Ticks while detection is disabled skip the frame entirely.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	camera := a.Camera()
	ticker := time.NewTicker(pipelineInterval(camera.FPS()))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.Enabled() {
				continue
			}

			frame, err := camera.ReadFrame()
			if err != nil {
				a.logger.Debug("error reading frame", zap.Error(err))
				continue
			}

			if _, err := a.ProcessFrame(frame, a.clock().Now()); err != nil {
				a.logger.Warn("error processing frame", zap.Error(err))
			}
			frame.Close()
		}
	}
}

// ProcessFrame runs one captured frame through the pipeline. The frame is
// mirrored and annotated in place.
func (a *App) ProcessFrame(frame *gocv.Mat, at time.Time) (tracking.Output, error) {
	if frame == nil || frame.Empty() {
		return a.Output(), errors.New("empty frame")
	}

	if a.Mirror() {
		capture.Mirror(frame)
	}

	obs, err := a.Detector().Detect(frame)
	if err != nil {
		// A failing detector sees nobody, so loss recovery can end tracking.
		a.logger.Warn("detection failed", zap.Error(err))
		obs = nil
	}
	if obs == nil {
		obs = &detector.Observation{}
	}

	width, height := frame.Cols(), frame.Rows()
	out := a.update(obs, width, height, at)

	overlay.Draw(frame, obs.Hands, out)
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		a.publish(out, nil)
		return out, errors.Wrap(err, "encode frame")
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.publish(out, jpeg)
	return out, nil
}

// Step advances the tracker with an observation made outside the camera
// pipeline and publishes the result.
func (a *App) Step(obs *detector.Observation, width, height int, at time.Time) tracking.Output {
	if obs == nil {
		obs = &detector.Observation{}
	}
	out := a.update(obs, width, height, at)
	a.publish(out, nil)
	return out
}

func (a *App) update(obs *detector.Observation, width, height int, at time.Time) tracking.Output {
	a.machineMu.Lock()
	out := a.machine.Update(tracking.Frame{
		Hands:     obs.Hands,
		Pose:      obs.Pose,
		Width:     width,
		Height:    height,
		Timestamp: at,
	})
	a.machineMu.Unlock()

	if a.config.Actuator != nil && out.Arm != nil {
		a.config.Actuator.Aim(out, width, height)
	}
	return out
}
