package app

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/orion/internal/capture"
	"github.com/ayusman/orion/internal/detector"
	"github.com/ayusman/orion/internal/store"
	"github.com/ayusman/orion/internal/tracking"
)

var (
	start   = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	errTest = errors.New("detector crashed")
)

type recordingActuator struct {
	mu          sync.Mutex
	transitions []tracking.Transition
	aims        int
}

func (r *recordingActuator) Transition(t tracking.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

func (r *recordingActuator) Aim(out tracking.Output, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aims++
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []any
}

func (r *recordingBroadcaster) Broadcast(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, v)
	return nil
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, s *store.Store) (*App, *recordingActuator, *recordingBroadcaster) {
	t.Helper()

	actuator := &recordingActuator{}
	broadcaster := &recordingBroadcaster{}
	a := New(Config{
		Camera:      capture.DefaultConfig(),
		Detector:    detector.DefaultConfig(),
		Tracking:    tracking.DefaultConfig(),
		Store:       s,
		Actuator:    actuator,
		Broadcaster: broadcaster,
		Clock:       tracking.NewFakeClock(start),
	})
	a.SetDetector(detector.NewMockDetector())
	return a, actuator, broadcaster
}

func gestureObservation(pose bool) *detector.Observation {
	obs := &detector.Observation{Hands: []detector.HandLandmarks{detector.ActivationLandmarks(detector.SideLeft)}}
	if pose {
		obs.Pose = detector.StandingPose()
	}
	return obs
}

// activate holds the gesture from start to start+1.5s in 100ms steps.
func activate(t *testing.T, a *App) {
	t.Helper()
	for i := 0; i <= 15; i++ {
		a.Step(gestureObservation(true), 640, 480, start.Add(time.Duration(i)*100*time.Millisecond))
	}
	if a.State() != tracking.Tracking {
		t.Fatalf("expected Tracking after a 1.5s hold, got %s", a.State())
	}
}

func TestApp_Step_ActivationAndLoss(t *testing.T) {
	s := newTestStore(t)
	a, actuator, broadcaster := newTestApp(t, s)

	activate(t, a)

	out := a.Output()
	if out.Side != detector.SideLeft {
		t.Errorf("expected Left side, got %q", out.Side)
	}
	if out.Arm == nil {
		t.Fatal("expected arm vector while tracking with a pose")
	}

	// Arm held without the gesture keeps tracking.
	for i := 16; i <= 20; i++ {
		out = a.Step(&detector.Observation{Pose: detector.StandingPose()}, 640, 480, start.Add(time.Duration(i)*100*time.Millisecond))
	}
	if out.State != tracking.Tracking {
		t.Fatalf("expected Tracking, got %s", out.State)
	}

	// Pose disappears at 2.1s; 3s later tracking ends.
	for i := 21; i <= 51; i++ {
		out = a.Step(nil, 640, 480, start.Add(time.Duration(i)*100*time.Millisecond))
	}
	if out.State != tracking.Idle {
		t.Fatalf("expected Idle after pose loss, got %s", out.State)
	}
	if out.Transition == nil || out.Transition.Reason != tracking.ReasonPoseLost {
		t.Errorf("expected pose_lost transition on the final frame, got %+v", out.Transition)
	}

	records, err := s.Transitions().List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 recorded transitions, got %d", len(records))
	}
	if records[0].Reason != "pose_lost" || records[1].Reason != "activated" {
		t.Errorf("unexpected history: %s, %s", records[0].Reason, records[1].Reason)
	}
	if records[1].Side != "Left" || !records[1].OccurredAt.Equal(start.Add(1500*time.Millisecond)) {
		t.Errorf("unexpected activation record: %+v", records[1])
	}

	if len(actuator.transitions) != 2 {
		t.Errorf("expected 2 actuator transitions, got %d", len(actuator.transitions))
	}
	// Aim is sent for tracked frames that carry an arm: the activating frame
	// and the five pose-only frames.
	if actuator.aims != 6 {
		t.Errorf("expected 6 aim events, got %d", actuator.aims)
	}
	if broadcaster.count() != 52 {
		t.Errorf("expected one broadcast per frame, got %d", broadcaster.count())
	}
}

func TestApp_SetEnabled(t *testing.T) {
	s := newTestStore(t)
	a, actuator, _ := newTestApp(t, s)

	if !a.Enabled() {
		t.Fatal("expected enabled by default")
	}

	activate(t, a)
	a.SetEnabled(false)

	if a.Enabled() {
		t.Error("expected disabled")
	}
	if a.State() != tracking.Idle {
		t.Errorf("disabling should reset the tracker, got %s", a.State())
	}
	if a.Output().State != tracking.Idle {
		t.Errorf("expected published Idle output, got %s", a.Output().State)
	}

	last := actuator.transitions[len(actuator.transitions)-1]
	if last.Reason != tracking.ReasonReset {
		t.Errorf("expected reset transition, got %s", last.Reason)
	}

	counts, _ := s.Transitions().CountByReason()
	if counts["reset"] != 1 {
		t.Errorf("expected one recorded reset, got %v", counts)
	}

	// The setting survives a restart.
	restarted, _, _ := newTestApp(t, s)
	if restarted.Enabled() {
		t.Error("expected stored disabled setting to be restored")
	}
}

func TestApp_SetMirror(t *testing.T) {
	s := newTestStore(t)
	a, _, _ := newTestApp(t, s)

	if !a.Mirror() {
		t.Fatal("expected mirror from camera config")
	}

	activate(t, a)
	a.SetMirror(false)

	if a.Mirror() {
		t.Error("expected mirror off")
	}
	if a.State() != tracking.Idle {
		t.Errorf("changing the mirror should reset the tracker, got %s", a.State())
	}
	if s.Settings().Bool(store.SettingMirror, true) {
		t.Error("expected mirror setting persisted")
	}
}

func TestApp_Reset_WithoutStore(t *testing.T) {
	a, actuator, broadcaster := newTestApp(t, nil)

	a.Reset()
	if len(actuator.transitions) != 0 {
		t.Error("resetting Idle should not report a transition")
	}
	if broadcaster.count() != 1 {
		t.Errorf("expected reset output broadcast, got %d", broadcaster.count())
	}
	if !a.Output().Timestamp.Equal(start) {
		t.Errorf("expected clock time on reset output, got %v", a.Output().Timestamp)
	}
}

func TestApp_ProcessFrame(t *testing.T) {
	a, _, _ := newTestApp(t, nil)

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.ActivationLandmarks(detector.SideRight)})
	a.SetDetector(mock)

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	out, err := a.ProcessFrame(&frame, start)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}

	if out.Candidate == nil || out.Candidate.Side != detector.SideRight {
		t.Fatalf("expected Right candidate, got %+v", out.Candidate)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected one detection, got %d", mock.Calls())
	}

	jpeg, seq := a.LatestJPEG()
	if seq != 1 {
		t.Errorf("expected seq 1, got %d", seq)
	}
	if len(jpeg) < 2 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		t.Error("expected JPEG data")
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := a.ProcessFrame(&empty, start); err == nil {
		t.Error("expected error for empty frame")
	}
}

func TestApp_ProcessFrame_DetectorError(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	activate(t, a)

	mock := detector.NewMockDetector()
	mock.SetError(errTest)
	a.SetDetector(mock)

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// A failing detector counts as a missing pose.
	var out tracking.Output
	for i := 0; i <= 30; i++ {
		out, _ = a.ProcessFrame(&frame, start.Add(2*time.Second+time.Duration(i)*100*time.Millisecond))
	}
	if out.State != tracking.Idle {
		t.Errorf("expected Idle after 3s of failed detection, got %s", out.State)
	}
}

func TestApp_Pipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a, _, _ := newTestApp(t, nil)

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.ActivationLandmarks(detector.SideLeft)})
	a.SetDetector(mock)
	a.SetCamera(capture.NewBlankCamera(320, 240))

	var mu sync.Mutex
	outputs := 0
	a.OnOutput(func(tracking.Output) {
		mu.Lock()
		outputs++
		mu.Unlock()
	})

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, seq := a.LatestJPEG(); seq >= 3 {
			break
		}
		if time.Now().After(deadline) {
			a.Stop()
			t.Fatal("pipeline produced no frames")
		}
		time.Sleep(20 * time.Millisecond)
	}
	a.Stop()

	if mock.Calls() < 3 {
		t.Errorf("expected detections, got %d", mock.Calls())
	}
	mu.Lock()
	defer mu.Unlock()
	if outputs < 3 {
		t.Errorf("expected output callbacks, got %d", outputs)
	}
	if a.Camera().IsOpen() {
		t.Error("expected camera closed after Stop")
	}
}

func TestActuators(t *testing.T) {
	first, second := &recordingActuator{}, &recordingActuator{}
	as := Actuators{first, second}

	as.Transition(tracking.Transition{To: tracking.Tracking, Reason: tracking.ReasonActivated})
	as.Aim(tracking.Output{State: tracking.Tracking}, 640, 480)

	for i, r := range []*recordingActuator{first, second} {
		if len(r.transitions) != 1 || r.aims != 1 {
			t.Errorf("actuator %d: got %d transitions and %d aims", i, len(r.transitions), r.aims)
		}
	}
}
