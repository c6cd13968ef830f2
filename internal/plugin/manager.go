package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/nebula/internal/log"
)

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrNoSampler is returned when no plugin declares a shape.
	ErrNoSampler = errors.New("no plugin samples this shape")
)

// DefaultTimeoutMs bounds one sampling run.
const DefaultTimeoutMs = 30000

// Manager manages plugin discovery and serves shape samples from the
// discovered plugins.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	executor  *Executor
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
		executor:  NewExecutor(DefaultTimeoutMs),
	}
}

// SetExecutor replaces the executor used by Sample.
func (m *Manager) SetExecutor(e *Executor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executor = e
}

// Discover scans the plugin directory for plugin.json files and loads them.
// Each subdirectory in the plugin directory is expected to be a plugin with a plugin.json manifest.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		manifestPath := filepath.Join(pluginPath, "plugin.json")

		manifestData, err := os.ReadFile(manifestPath)
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			log.Warn("skipping plugin with invalid manifest", "path", manifestPath, "err", err)
			continue
		}
		if manifest.Name == "" {
			manifest.Name = entry.Name()
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
		log.Debug("plugin discovered", "plugin", manifest.Name, "shapes", manifest.Shapes)
	}

	return nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
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

// ForShape returns the first plugin, by name, that declares shape.
func (m *Manager) ForShape(shape string) (*Plugin, error) {
	for _, p := range m.List() {
		if p.Serves(shape) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", shape, ErrNoSampler)
}

// Sample runs the plugin that declares name and returns its point cloud.
// It satisfies shapes.Sampler.
func (m *Manager) Sample(ctx context.Context, name string, count int) ([]float32, error) {
	p, err := m.ForShape(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	ex := m.executor
	m.mu.RUnlock()

	resp, err := ex.Execute(ctx, p, &Request{
		Action: ActionSample,
		Shape:  name,
		Count:  count,
		Config: p.Manifest.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", p.Manifest.Name, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("plugin %s: %s", p.Manifest.Name, resp.Error)
	}
	if len(resp.Points) == 0 || len(resp.Points)%3 != 0 {
		return nil, fmt.Errorf("plugin %s returned %d values, want x y z triples", p.Manifest.Name, len(resp.Points))
	}
	return resp.Points, nil
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
