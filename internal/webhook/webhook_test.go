package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/orion/internal/detector"
	"github.com/ayusman/orion/internal/tracking"
)

func TestNew_NoURLs(t *testing.T) {
	if New(Config{}, nil) != nil {
		t.Error("expected nil notifier without URLs")
	}
}

func TestNotifier_PostsInOrder(t *testing.T) {
	var mu sync.Mutex
	var received []Event

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var e Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	n := New(Config{URLs: []string{ts.URL}}, nil)
	at := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

	n.Transition(tracking.Transition{From: tracking.Idle, To: tracking.Tracking, Reason: tracking.ReasonActivated, Side: detector.SideLeft, At: at})
	n.Transition(tracking.Transition{From: tracking.Tracking, To: tracking.Idle, Reason: tracking.ReasonDeactivated, Side: detector.SideLeft, At: at.Add(time.Second)})
	n.Close(context.Background())

	// Ignored after Close.
	n.Transition(tracking.Transition{To: tracking.Idle, Reason: tracking.ReasonReset})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(received))
	}
	if received[0].Reason != "activated" || received[0].To != "tracking" || received[0].Side != "Left" {
		t.Errorf("unexpected first event: %+v", received[0])
	}
	if received[1].Reason != "deactivated" || !received[1].At.Equal(at.Add(time.Second)) {
		t.Errorf("unexpected second event: %+v", received[1])
	}
}

func TestNotifier_ServerErrorDoesNotStop(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	n := New(Config{URLs: []string{ts.URL, ts.URL}, Timeout: time.Second}, nil)
	n.Transition(tracking.Transition{To: tracking.Tracking, Reason: tracking.ReasonActivated})
	n.Transition(tracking.Transition{To: tracking.Idle, Reason: tracking.ReasonPoseLost})
	n.Close(context.Background())
	n.Close(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if calls != 4 {
		t.Errorf("expected every event posted to both URLs, got %d calls", calls)
	}
}
