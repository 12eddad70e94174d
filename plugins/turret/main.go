// Package main is an actuator plugin that turns aim events into pan/tilt
// commands for a two-servo turret. Commands are written as text lines to
// the configured device, typically a serial port; without a device the
// plugin only reports the angles it would send.
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
)

// Request mirrors the request written by the tracker.
type Request struct {
	Event  string          `json:"event"`
	State  string          `json:"state"`
	Side   string          `json:"side"`
	Reason string          `json:"reason"`
	Aim    *Aim            `json:"aim"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Config json.RawMessage `json:"config"`
}

// Aim is the arm geometry in pixels.
type Aim struct {
	End image.Point `json:"end"`
}

// Response is read back by the tracker.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type config struct {
	Device  string  `json:"device"`
	PanFOV  float64 `json:"pan_fov"`
	TiltFOV float64 `json:"tilt_fov"`
}

type command struct {
	Armed bool    `json:"armed"`
	Pan   float64 `json:"pan"`
	Tilt  float64 `json:"tilt"`
}

type eventHandler func(req *Request, cfg config) (*command, error)

var eventHandlers = map[string]eventHandler{
	"transition": handleTransition,
	"aim":        handleAim,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cfg := config{PanFOV: 60, TiltFOV: 45}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	handler, ok := eventHandlers[req.Event]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	cmd, err := handler(&req, cfg)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("%s failed: %v", req.Event, err))
		return
	}

	if err := send(cfg.Device, cmd); err != nil {
		writeErrorResponse(fmt.Sprintf("write %s: %v", cfg.Device, err))
		return
	}

	data, _ := json.Marshal(cmd)
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// handleTransition arms the turret on entering tracking and centers it on
// leaving.
func handleTransition(req *Request, _ config) (*command, error) {
	return &command{Armed: req.State == "tracking"}, nil
}

// handleAim maps the aim endpoint to servo angles. The frame center is
// (0, 0); the frame edges are half the field of view.
func handleAim(req *Request, cfg config) (*command, error) {
	if req.Aim == nil {
		return nil, fmt.Errorf("missing aim")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("missing frame size")
	}

	x := clamp(float64(req.Aim.End.X)/float64(req.Width), 0, 1)
	y := clamp(float64(req.Aim.End.Y)/float64(req.Height), 0, 1)

	return &command{
		Armed: true,
		Pan:   (x - 0.5) * cfg.PanFOV,
		Tilt:  (0.5 - y) * cfg.TiltFOV,
	}, nil
}

func send(device string, cmd *command) error {
	if device == "" {
		return nil
	}

	f, err := os.OpenFile(device, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	armed := 0
	if cmd.Armed {
		armed = 1
	}
	_, err = fmt.Fprintf(f, "A%d P%.1f T%.1f\n", armed, cmd.Pan, cmd.Tilt)
	return err
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}
