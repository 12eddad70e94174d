package tracking

import (
	"image"
	"math"

	"github.com/ayusman/orion/internal/detector"
)

// ArmVector is the committed arm in pixel space. Vector points from the
// elbow to the wrist; AimEnd extends it one more length past the wrist.
type ArmVector struct {
	Shoulder image.Point `json:"shoulder"`
	Elbow    image.Point `json:"elbow"`
	Wrist    image.Point `json:"wrist"`
	Vector   image.Point `json:"vector"`
	AimEnd   image.Point `json:"aim_end"`
}

// Angle returns the direction of Vector in degrees, counter-clockwise from
// the positive X axis with Y pointing up.
func (a ArmVector) Angle() float64 {
	return math.Atan2(float64(-a.Vector.Y), float64(a.Vector.X)) * 180 / math.Pi
}

type armJoints struct {
	Shoulder, Elbow, Wrist int
}

// armLandmarks maps the reported hand side to the pose landmarks of that
// physical arm. Frames are mirrored before detection, so the pose labels
// are swapped relative to the hand labels.
var armLandmarks = map[detector.Side]armJoints{
	detector.SideLeft: {
		Shoulder: detector.PoseRightShoulder,
		Elbow:    detector.PoseRightElbow,
		Wrist:    detector.PoseRightWrist,
	},
	detector.SideRight: {
		Shoulder: detector.PoseLeftShoulder,
		Elbow:    detector.PoseLeftElbow,
		Wrist:    detector.PoseLeftWrist,
	},
}

// ComputeArmVector derives the arm joints and aim vector for the reported
// hand side. It returns false when pose is nil or side is unknown.
func ComputeArmVector(pose *detector.PoseLandmarks, width, height int, side detector.Side) (ArmVector, bool) {
	joints, ok := armLandmarks[side]
	if pose == nil || !ok {
		return ArmVector{}, false
	}

	shoulder := toPixel(pose.Points[joints.Shoulder], width, height)
	elbow := toPixel(pose.Points[joints.Elbow], width, height)
	wrist := toPixel(pose.Points[joints.Wrist], width, height)
	vector := wrist.Sub(elbow)

	return ArmVector{
		Shoulder: shoulder,
		Elbow:    elbow,
		Wrist:    wrist,
		Vector:   vector,
		AimEnd:   wrist.Add(vector),
	}, true
}

func toPixel(p detector.Point3D, width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}
