package capture

import "gocv.io/x/gocv"

// Mirror flips frame around its vertical axis in place so the preview reads
// like a mirror. Handedness labels from the estimator refer to the flipped
// image.
func Mirror(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.Flip(*frame, frame, 1)
}
