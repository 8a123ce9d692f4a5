package plugins

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/logger"
	"github.com/personachat/personachat/internal/models"
)

type entry struct {
	plugin   Plugin
	enabled  bool
	external bool
}

// Manager owns the registered plugins and runs their hooks around each
// chat request. Built-in plugins are registered at construction;
// external ones are interpreted from the plugin directory.
type Manager struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry

	cfg  *config.Config
	pctx *Context
	dir  string

	watcher *fsnotify.Watcher
}

// NewManager creates a manager with the built-in plugins registered
func NewManager(cfg *config.Config, pctx *Context) *Manager {
	m := &Manager{
		entries: make(map[string]*entry),
		cfg:     cfg,
		pctx:    pctx,
		dir:     cfg.PluginDir,
	}

	m.register("hello", &Hello{}, false)
	m.register("web_search", &WebSearch{}, false)
	m.register("code_runner", NewCodeRunner(), false)

	return m
}

func (m *Manager) register(id string, p Plugin, external bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[id]; !exists {
		m.order = append(m.order, id)
	}
	m.entries[id] = &entry{
		plugin:   p,
		enabled:  m.savedState(id),
		external: external,
	}
}

// savedState returns the persisted enabled state for a plugin,
// defaulting to enabled
func (m *Manager) savedState(id string) bool {
	if m.cfg == nil {
		return true
	}
	if state, ok := m.cfg.Prefs().Plugins.States[id]; ok {
		return state
	}
	return true
}

// LoadExternal interprets every plugin file in the plugin directory.
// Broken plugins are logged and skipped.
func (m *Manager) LoadExternal() {
	files, err := listPluginFiles(m.dir)
	if err != nil {
		logger.Warning("Failed to scan plugin directory %s: %v", m.dir, err)
		return
	}

	for _, file := range files {
		m.loadFile(file)
	}
}

func (m *Manager) loadFile(path string) {
	plugin, err := loadExternal(path)
	if err != nil {
		logger.Warning("Skipping plugin %s: %v", filepath.Base(path), err)
		return
	}

	id := pluginID(path)
	m.register(id, plugin, true)
	logger.Info("Loaded external plugin %q from %s", plugin.Name(), filepath.Base(path))
}

func (m *Manager) removeFile(path string) {
	id := pluginID(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || !e.external {
		return
	}

	delete(m.entries, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	logger.Info("Unloaded external plugin %q", id)
}

// Watch reloads external plugins when their source files change. It
// blocks until ctx is cancelled and is meant to run in its own
// goroutine.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create plugin watcher: %w", err)
	}
	m.watcher = watcher
	defer watcher.Close()

	if err := watcher.Add(m.dir); err != nil {
		return fmt.Errorf("failed to watch plugin directory %s: %w", m.dir, err)
	}
	logger.Info("Watching %s for plugin changes", m.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".go") {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				m.removeFile(event.Name)
			case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
				m.loadFile(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warning("Plugin watcher error: %v", err)
		}
	}
}

// List returns plugin metadata sorted by ID
func (m *Manager) List() []models.PluginInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]models.PluginInfo, 0, len(m.entries))
	for id, e := range m.entries {
		infos = append(infos, models.PluginInfo{
			ID:          id,
			Name:        e.plugin.Name(),
			Description: e.plugin.Description(),
			Enabled:     e.enabled,
			External:    e.external,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// SetEnabled toggles a plugin and persists the state to the
// preferences file
func (m *Manager) SetEnabled(id string, enabled bool) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q not found", id)
	}
	e.enabled = enabled
	m.mu.Unlock()

	if m.cfg != nil {
		prefs := m.cfg.Prefs()
		if prefs.Plugins.States == nil {
			prefs.Plugins.States = make(map[string]bool)
		}
		prefs.Plugins.States[id] = enabled
		if err := m.cfg.SavePrefs(); err != nil {
			return fmt.Errorf("failed to persist plugin state: %w", err)
		}
	}

	return nil
}

// enabledPlugins snapshots the enabled plugins in registration order
func (m *Manager) enabledPlugins() []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Plugin
	for _, id := range m.order {
		if e := m.entries[id]; e != nil && e.enabled {
			result = append(result, e.plugin)
		}
	}
	return result
}

// ProcessInput runs every enabled input hook over the user message.
// The first hook that bypasses the model wins; hook errors are logged
// and skipped.
func (m *Manager) ProcessInput(ctx context.Context, input string) *InputResult {
	text := input
	for _, p := range m.enabledPlugins() {
		hook, ok := p.(InputHook)
		if !ok {
			continue
		}
		res, err := hook.ProcessInput(ctx, m.pctx, text)
		if err != nil {
			logger.Warning("Plugin %q input hook failed: %v", p.Name(), err)
			continue
		}
		if res == nil {
			continue
		}
		if res.BypassAI {
			if res.Text == "" {
				res.Text = text
			}
			return res
		}
		if res.Text != "" {
			text = res.Text
		}
	}
	return &InputResult{Text: text}
}

// ProcessOutput runs every enabled output hook over the model response
func (m *Manager) ProcessOutput(ctx context.Context, output string) string {
	text := output
	for _, p := range m.enabledPlugins() {
		hook, ok := p.(OutputHook)
		if !ok {
			continue
		}
		processed, err := hook.ProcessOutput(ctx, m.pctx, text)
		if err != nil {
			logger.Warning("Plugin %q output hook failed: %v", p.Name(), err)
			continue
		}
		if processed != "" {
			text = processed
		}
	}
	return text
}
