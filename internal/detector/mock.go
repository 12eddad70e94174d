package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	pose  *PoseLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetPose sets the body pose returned by Detect. nil means no body.
func (m *MockDetector) SetPose(pose *PoseLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = pose
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured observation or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &Observation{Hands: m.hands, Pose: m.pose}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ActivationLandmarks returns a preset hand showing the activation gesture:
// index and middle fingers extended upward, ring and pinky curled.
// The hand spans roughly x 0.40-0.60 and y 0.28-0.80.
func ActivationLandmarks(side Side) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: side,
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb folded across the palm
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.76, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: -0.02}
	landmarks.Points[ThumbIP] = Point3D{X: 0.55, Y: 0.66, Z: -0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.50, Y: 0.65, Z: -0.04}

	// Index finger extended upward
	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.60, Y: 0.35, Z: 0.0}

	// Middle finger extended upward
	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	// Ring finger curled
	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.72, Z: -0.02}

	// Pinky finger curled
	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.41, Y: 0.72, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.41, Y: 0.74, Z: -0.02}

	return landmarks
}

// OpenPalmLandmarks returns a preset hand with all fingers extended.
func OpenPalmLandmarks(side Side) HandLandmarks {
	landmarks := ActivationLandmarks(side)

	// Ring finger extended upward
	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	// Pinky finger extended upward
	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}

// StandingPose returns a preset body pose facing the camera with both arms
// raised to the side. The estimator's left arm sits on the right half of the
// mirrored frame.
func StandingPose() *PoseLandmarks {
	pose := &PoseLandmarks{Score: 0.9}

	pose.Points[PoseLeftShoulder] = Point3D{X: 0.625, Y: 0.375}
	pose.Points[PoseLeftElbow] = Point3D{X: 0.75, Y: 0.5}
	pose.Points[PoseLeftWrist] = Point3D{X: 0.875, Y: 0.375}

	pose.Points[PoseRightShoulder] = Point3D{X: 0.375, Y: 0.375}
	pose.Points[PoseRightElbow] = Point3D{X: 0.25, Y: 0.5}
	pose.Points[PoseRightWrist] = Point3D{X: 0.125, Y: 0.25}

	return pose
}
