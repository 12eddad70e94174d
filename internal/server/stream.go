package server

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultStreamInterval paces the MJPEG stream at about 15 frames per second.
const DefaultStreamInterval = 66 * time.Millisecond

// FrameSource supplies the latest annotated frame as JPEG. seq increases
// with every new frame; a nil frame means none is available yet.
type FrameSource interface {
	LatestJPEG() (frame []byte, seq uint64)
}

// StreamHandler serves annotated frames as MJPEG.
type StreamHandler struct {
	frames   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler reading from frames.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames, interval: DefaultStreamInterval}
}

// ServeHTTP writes each new frame until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last uint64
	for {
		frame, seq := h.frames.LatestJPEG()
		if frame != nil && seq != last {
			last = seq
			if err := writePart(w, frame); err != nil {
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
