package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager discovers plugins below a directory. Each plugin lives in its own
// subdirectory with a plugin.json manifest.
type Manager struct {
	pluginDir string
	logger    *zap.Logger
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a Manager for pluginDir.
func NewManager(pluginDir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pluginDir: pluginDir,
		logger:    logger,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory. A missing directory yields no
// plugins; unreadable or invalid manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	if m.pluginDir == "" {
		return nil
	}

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "stat plugin dir")
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return errors.Wrap(err, "read plugin dir")
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		manifestData, err := os.ReadFile(filepath.Join(pluginPath, "plugin.json"))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			m.logger.Warn("invalid plugin manifest", zap.String("path", pluginPath), zap.Error(err))
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			m.logger.Warn("plugin manifest needs name and executable", zap.String("path", pluginPath))
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
		m.logger.Info("plugin discovered", zap.String("name", manifest.Name), zap.String("version", manifest.Version))
	}

	return nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, errors.Wrap(ErrPluginNotFound, name)
	}
	return plugin, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// Subscribers returns the plugins that accept e.
func (m *Manager) Subscribers(e Event) []*Plugin {
	var out []*Plugin
	for _, p := range m.List() {
		if p.Manifest.Accepts(e) {
			out = append(out, p)
		}
	}
	return out
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
