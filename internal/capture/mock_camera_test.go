package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen before Open, got %v", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("expected ErrNoMoreFrames, got %v", err)
	}

	cam.Reset()
	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after Reset error = %v", err)
	}
	f.Close()
}

func TestMockCamera_Loop(t *testing.T) {
	cam := NewBlankCamera(320, 240)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		if f.Cols() != 320 || f.Rows() != 240 {
			t.Errorf("expected 320x240, got %dx%d", f.Cols(), f.Rows())
		}
		f.Close()
	}
}

func TestMirror(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 2, 4, gocv.MatTypeCV8UC1)
	defer frame.Close()
	frame.SetUCharAt(0, 0, 200)

	Mirror(&frame)

	if got := frame.GetUCharAt(0, 3); got != 200 {
		t.Errorf("expected pixel moved to the right edge, got %d", got)
	}
	if got := frame.GetUCharAt(0, 0); got != 0 {
		t.Errorf("expected left edge cleared, got %d", got)
	}

	Mirror(nil)
}
