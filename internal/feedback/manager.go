package feedback

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// manifestName is the file every plugin directory must contain.
const manifestName = "feedback.json"

// Manager discovers plugins under a directory and hands them out by
// name or by the exercise they accept cues for.
type Manager struct {
	pluginDir string

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory, replacing the previous set.
// Each immediate subdirectory holding a feedback.json manifest becomes
// one plugin. A missing plugin directory is not an error; directories
// with unreadable or invalid manifests are skipped and logged.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.pluginDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	found := make(map[string]*Plugin)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		plugin, err := loadPlugin(filepath.Join(m.pluginDir, entry.Name()))
		if err != nil {
			log.Printf("feedback: skipping plugin dir %s: %v", entry.Name(), err)
			continue
		}
		found[plugin.Manifest.Name] = plugin
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()
	return nil
}

// loadPlugin reads and parses the manifest under dir.
func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns the plugin with the given manifest name, or
// ErrPluginNotFound.
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
	return m.collect(func(*Plugin) bool { return true })
}

// ForExercise returns the plugins that accept cues for the given
// exercise, sorted by name. Cues reach plugins in this order.
func (m *Manager) ForExercise(exercise string) []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(p *Plugin) bool { return p.Supports(exercise) })
}

// collect gathers matching plugins in name order. Callers hold m.mu.
func (m *Manager) collect(keep func(*Plugin) bool) []*Plugin {
	var plugins []*Plugin
	for _, plugin := range m.plugins {
		if keep(plugin) {
			plugins = append(plugins, plugin)
		}
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
