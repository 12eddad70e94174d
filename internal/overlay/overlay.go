// Package overlay draws tracking results onto camera frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/orion/internal/detector"
	"github.com/ayusman/orion/internal/tracking"
)

var (
	landmarkColor   = color.RGBA{R: 76, G: 22, B: 121, A: 255}
	connectionColor = color.RGBA{R: 250, G: 44, B: 250, A: 255}
	candidateColor  = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	aimColor        = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	jointColor      = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	boneColor       = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	idleColor       = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	trackingColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	barBackground   = color.RGBA{R: 60, G: 60, B: 60, A: 255}
)

// handConnections are the bones of the 21-point hand model.
var handConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// Draw annotates frame in place with the detected hands and the machine
// output for that frame.
func Draw(frame *gocv.Mat, hands []detector.HandLandmarks, out tracking.Output) {
	if frame == nil || frame.Empty() {
		return
	}
	width, height := frame.Cols(), frame.Rows()

	for i := range hands {
		drawHand(frame, &hands[i], width, height)
	}

	if c := out.Candidate; c != nil {
		gocv.Rectangle(frame, c.Box.Rect(), candidateColor, 2)
		gocv.Circle(frame, c.AimPoint, 10, aimColor, -1)
	}

	if arm := out.Arm; arm != nil {
		drawArm(frame, arm)
	}

	drawBanner(frame, out, width)
}

func drawHand(frame *gocv.Mat, hand *detector.HandLandmarks, width, height int) {
	pt := func(i int) image.Point {
		p := hand.Points[i]
		return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
	}

	for _, c := range handConnections {
		gocv.Line(frame, pt(c[0]), pt(c[1]), connectionColor, 2)
	}
	for i := range hand.Points {
		gocv.Circle(frame, pt(i), 4, landmarkColor, -1)
	}
}

func drawArm(frame *gocv.Mat, arm *tracking.ArmVector) {
	gocv.Line(frame, arm.Shoulder, arm.Elbow, boneColor, 3)
	gocv.Line(frame, arm.Elbow, arm.Wrist, boneColor, 3)
	gocv.ArrowedLine(frame, arm.Wrist, arm.AimEnd, aimColor, 2)

	for _, p := range []image.Point{arm.Shoulder, arm.Elbow, arm.Wrist} {
		gocv.Circle(frame, p, 5, jointColor, -1)
	}
}

func drawBanner(frame *gocv.Mat, out tracking.Output, width int) {
	textColor := idleColor
	if out.State == tracking.Tracking {
		textColor = trackingColor
	}
	gocv.PutText(frame, Label(out), image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, textColor, 2)

	progress := out.HoldProgress
	if progress <= 0 {
		return
	}
	bar := image.Rect(10, 42, width/3, 52)
	gocv.Rectangle(frame, bar, barBackground, -1)
	filled := bar
	filled.Max.X = bar.Min.X + int(float64(bar.Dx())*progress)
	gocv.Rectangle(frame, filled, textColor, -1)
}

// Label is the banner text for out.
func Label(out tracking.Output) string {
	switch out.State {
	case tracking.Tracking:
		label := fmt.Sprintf("Tracking (%s)", out.Side)
		if out.Arm != nil {
			label += fmt.Sprintf(" %.0f deg", out.Arm.Angle())
		} else if out.LossProgress > 0 {
			label += " pose lost"
		}
		return label
	default:
		if out.HoldProgress > 0 {
			return fmt.Sprintf("Gesture Detected (%s)", out.Side)
		}
		return "Idle"
	}
}
