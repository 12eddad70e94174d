package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExecutor_Execute(t *testing.T) {
	p := writePlugin(t, t.TempDir(), "echo", `echo '{"success":true,"data":{"message":"aimed"}}'`+"\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: EventAim})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success=true")
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "aimed" {
		t.Errorf("expected message 'aimed', got %q", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// The script answers with the request it received.
	p := writePlugin(t, t.TempDir(), "mirror", "req=$(cat)\nprintf '{\"success\":true,\"data\":%s}' \"$req\"\n")

	req := &Request{Event: EventTransition, State: "tracking", Side: "Left", Reason: "activated"}
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to decode echoed request: %v", err)
	}
	if got.Event != EventTransition || got.State != "tracking" || got.Side != "Left" || got.Reason != "activated" {
		t.Errorf("unexpected echoed request: %+v", got)
	}
	if string(got.Config) != `{"port":"/dev/null"}` {
		t.Errorf("expected manifest config attached, got %s", got.Config)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := writePlugin(t, t.TempDir(), "slow", "sleep 10\necho '{\"success\":true}'\n")

	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), p, &Request{Event: EventAim})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	p := writePlugin(t, t.TempDir(), "failing", `echo '{"success":false,"error":"servo offline"}'`+"\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: EventAim})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Error != "servo offline" {
		t.Errorf("expected error 'servo offline', got %q", resp.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	p := writePlugin(t, t.TempDir(), "garbage", "echo 'not json'\n")

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: EventAim})
	if err == nil || !strings.Contains(err.Error(), "parse response") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	p := writePlugin(t, t.TempDir(), "crash", "echo 'boom' >&2\nexit 1\n")

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: EventAim})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}
