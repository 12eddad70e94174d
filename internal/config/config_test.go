package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/orion/internal/plugin"
	"github.com/ayusman/orion/internal/tracking"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Tracking.HoldDuration != 1500*time.Millisecond {
		t.Errorf("expected 1.5s hold, got %s", cfg.Tracking.HoldDuration)
	}
	if cfg.Tracking.LossTimeout != 3*time.Second {
		t.Errorf("expected 3s loss timeout, got %s", cfg.Tracking.LossTimeout)
	}
	if !cfg.Camera.Mirror {
		t.Error("expected mirrored capture by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("expected default addr, got %q", cfg.Server.Addr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orion.yaml")
	data := `
server:
  addr: ":9090"
camera:
  device_id: 1
  mirror: false
tracking:
  hold_duration: 2s
  area_tolerance: 0.3
plugins:
  dir: /opt/orion/plugins
  aim_interval: 500ms
webhooks:
  urls:
    - http://127.0.0.1:9000/events
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Server.Addr)
	}
	if cfg.Camera.DeviceID != 1 || cfg.Camera.Mirror {
		t.Errorf("unexpected camera config: %+v", cfg.Camera)
	}
	if cfg.Tracking.HoldDuration != 2*time.Second {
		t.Errorf("expected 2s hold, got %s", cfg.Tracking.HoldDuration)
	}
	if cfg.Tracking.AreaTolerance != 0.3 {
		t.Errorf("expected tolerance 0.3, got %g", cfg.Tracking.AreaTolerance)
	}
	if cfg.Tracking.LossTimeout != tracking.DefaultLossTimeout {
		t.Errorf("expected default loss timeout to survive, got %s", cfg.Tracking.LossTimeout)
	}
	if cfg.Camera.Width != 640 {
		t.Errorf("expected default width to survive, got %d", cfg.Camera.Width)
	}
	if cfg.Plugins.Dir != "/opt/orion/plugins" || cfg.Plugins.AimInterval != 500*time.Millisecond {
		t.Errorf("unexpected plugin config: %+v", cfg.Plugins)
	}
	if cfg.Plugins.Timeout != plugin.DefaultTimeout {
		t.Errorf("expected default plugin timeout to survive, got %s", cfg.Plugins.Timeout)
	}
	if len(cfg.Webhooks.URLs) != 1 || cfg.Webhooks.URLs[0] != "http://127.0.0.1:9000/events" {
		t.Errorf("unexpected webhooks: %+v", cfg.Webhooks)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Log.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		os.WriteFile(path, []byte("server: [unclosed"), 0o644)
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("bad threshold", func(t *testing.T) {
		path := filepath.Join(dir, "threshold.yaml")
		os.WriteFile(path, []byte("tracking:\n  loss_timeout: -1s\n"), 0o644)
		_, err := Load(path)
		if !errors.Is(err, tracking.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orion.yaml")

	cfg := Default()
	cfg.Tracking.HoldDuration = 750 * time.Millisecond
	cfg.Store.Path = "/tmp/history.db"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Tracking.HoldDuration != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", loaded.Tracking.HoldDuration)
	}
	if loaded.Store.Path != "/tmp/history.db" {
		t.Errorf("expected store path, got %q", loaded.Store.Path)
	}
}
