// Package plugin runs external actuator programs that receive tracker
// events, such as a turret or pan/tilt driver.
package plugin

import (
	"encoding/json"
	"image"
	"time"
)

// Event names a kind of request sent to plugins.
type Event string

const (
	// EventTransition is sent on every state change.
	EventTransition Event = "transition"
	// EventAim is sent while tracking, at most once per AimInterval.
	EventAim Event = "aim"
)

// Manifest describes a plugin's metadata and the events it accepts.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []Event         `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Accepts reports whether the manifest subscribes to e. A manifest without
// events accepts all of them.
func (m Manifest) Accepts(e Event) bool {
	if len(m.Events) == 0 {
		return true
	}
	for _, ev := range m.Events {
		if ev == e {
			return true
		}
	}
	return false
}

// Aim is the arm geometry of a tracked frame in pixels.
type Aim struct {
	Shoulder image.Point `json:"shoulder"`
	Elbow    image.Point `json:"elbow"`
	Wrist    image.Point `json:"wrist"`
	Vector   image.Point `json:"vector"`
	End      image.Point `json:"end"`
	Angle    float64     `json:"angle"`
}

// Request is written to a plugin's stdin as one JSON document.
type Request struct {
	Event  Event           `json:"event"`
	State  string          `json:"state"`
	Side   string          `json:"side,omitempty"`
	Reason string          `json:"reason,omitempty"`
	Aim    *Aim            `json:"aim,omitempty"`
	Width  int             `json:"width,omitempty"`
	Height int             `json:"height,omitempty"`
	At     time.Time       `json:"at"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
