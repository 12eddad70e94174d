// Package config loads the YAML configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/orion/internal/capture"
	"github.com/ayusman/orion/internal/detector"
	"github.com/ayusman/orion/internal/logger"
	"github.com/ayusman/orion/internal/plugin"
	"github.com/ayusman/orion/internal/tracking"
	"github.com/ayusman/orion/internal/webhook"
)

// DefaultAddr is where the dashboard listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig locates the history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// TrayConfig toggles the system tray icon.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the whole configuration file.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Camera   capture.Config  `yaml:"camera"`
	Detector detector.Config `yaml:"detector"`
	Tracking tracking.Config `yaml:"tracking"`
	Store    StoreConfig     `yaml:"store"`
	Plugins  plugin.Config   `yaml:"plugins"`
	Webhooks webhook.Config  `yaml:"webhooks"`
	Log      logger.Config   `yaml:"log"`
	Tray     TrayConfig      `yaml:"tray"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: DefaultAddr},
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Tracking: tracking.DefaultConfig(),
		Store:    StoreConfig{Path: filepath.Join(DataDir(), "orion.db")},
		Plugins: plugin.Config{
			Dir:         filepath.Join(DataDir(), "plugins"),
			Timeout:     plugin.DefaultTimeout,
			AimInterval: plugin.DefaultAimInterval,
			QueueSize:   plugin.DefaultQueueSize,
			Smoothing:   true,
		},
		Log:      logger.Config{Level: "info"},
		Tray:     TrayConfig{Enabled: true},
	}
}

// DataDir returns ~/.orion, or .orion in the working directory when the
// home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".orion"
	}
	return filepath.Join(home, ".orion")
}

// Load reads path over the defaults. A missing file is not an error; keys
// absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Camera.DeviceID < 0 {
		return errors.Errorf("camera.device_id must not be negative, got %d", c.Camera.DeviceID)
	}
	if c.Detector.MaxHands <= 0 {
		return errors.Errorf("detector.max_hands must be positive, got %d", c.Detector.MaxHands)
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	return errors.Wrap(c.Tracking.Validate(), "tracking")
}

// Save writes c to path as YAML, creating parent directories.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config")
}
