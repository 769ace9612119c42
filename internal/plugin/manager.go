package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/ayusman/yubimoji/internal/logging"
)

const manifestName = "plugin.json"

var (
	// ErrPluginNotFound is returned when no discovered plugin has the name.
	ErrPluginNotFound = errors.New("plugin not found")

	errNoManifest = errors.New("no manifest")
)

// Manager discovers plugins under one directory.
type Manager struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	plugins []*Plugin // sorted by name
}

// NewManager creates a Manager over dir. Nothing is read until Discover.
func NewManager(dir string, logger *slog.Logger) *Manager {
	return &Manager{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "plugin"),
	}
}

// Discover replaces the known plugins with those found in the immediate
// subdirectories of the plugin directory. A missing directory yields none.
// Invalid plugins are logged and skipped; of two plugins with the same
// name, the one in the alphabetically first directory wins.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		m.set(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin dir: %w", err)
	}

	var found []*Plugin
	seen := make(map[string]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.dir, entry.Name())
		p, err := loadPlugin(dir)
		if errors.Is(err, errNoManifest) {
			continue
		}
		if err != nil {
			m.logger.Warn("skipping plugin", "dir", dir, "error", err)
			continue
		}
		if other, dup := seen[p.Manifest.Name]; dup {
			m.logger.Warn("skipping duplicate plugin", "name", p.Manifest.Name, "dir", dir, "kept", other)
			continue
		}
		seen[p.Manifest.Name] = dir
		found = append(found, p)
	}

	slices.SortFunc(found, func(a, b *Plugin) int {
		return strings.Compare(a.Manifest.Name, b.Manifest.Name)
	})
	m.set(found)
	m.logger.Info("plugins discovered", "dir", m.dir, "count", len(found))
	return nil
}

func (m *Manager) set(plugins []*Plugin) {
	m.mu.Lock()
	m.plugins = plugins
	m.mu.Unlock()
}

func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNoManifest
	}
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

func (m Manifest) validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("manifest name is required")
	}
	if m.Executable == "" {
		return errors.New("manifest executable is required")
	}
	if !filepath.IsLocal(m.Executable) {
		return fmt.Errorf("executable %q must stay inside the plugin directory", m.Executable)
	}
	for _, event := range m.Events {
		if event != EventSign && event != EventWord {
			return fmt.Errorf("unknown event %q", event)
		}
	}
	return nil
}

// Get returns the plugin named name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := slices.BinarySearchFunc(m.plugins, name, func(p *Plugin, name string) int {
		return strings.Compare(p.Manifest.Name, name)
	})
	if !ok {
		return nil, ErrPluginNotFound
	}
	return m.plugins[i], nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.plugins)
}

// Subscribers returns the plugins that handle event, sorted by name.
func (m *Manager) Subscribers(event string) []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Plugin
	for _, p := range m.plugins {
		if p.Manifest.Handles(event) {
			out = append(out, p)
		}
	}
	return out
}

// PluginDir returns the directory Discover scans.
func (m *Manager) PluginDir() string {
	return m.dir
}
