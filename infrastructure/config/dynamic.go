package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// Manager layers a ConfigWatcher's hot-reloadable DynamicConfig on top
// of the static, environment-loaded Config, applying each reload to
// the live Config under a lock.
type Manager struct {
	static  *Config
	watcher *ConfigWatcher

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewManager builds a Manager. configPath may be empty, in which case
// the manager only ever serves static.
func NewManager(static *Config, configPath string, logger *zap.Logger) (*Manager, error) {
	ctx, cancel := context.WithCancel(context.Background())

	var watcher *ConfigWatcher
	if configPath != "" {
		w, err := NewConfigWatcher(configPath, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("config: creating watcher: %w", err)
		}
		watcher = w
	}

	m := &Manager{static: static, watcher: watcher, ctx: ctx, cancel: cancel, logger: logger}
	if watcher != nil {
		watcher.OnChange(m.apply)
		m.apply(watcher.GetCurrent())
	}
	return m, nil
}

// Start begins the underlying file watcher, if one is configured.
func (m *Manager) Start() {
	if m.watcher != nil {
		m.watcher.Start()
	}
	m.logger.Info("configuration manager started")
}

// Stop stops the underlying file watcher.
func (m *Manager) Stop() {
	m.cancel()
	if m.watcher != nil {
		m.watcher.Stop()
	}
	m.logger.Info("configuration manager stopped")
}

func (m *Manager) apply(dyn *DynamicConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	graphs := make(ExtensionGraphs, len(dyn.ExtensionGraphs))
	for name, iri := range dyn.ExtensionGraphs {
		graphs[name] = rdf.GraphName(iri)
	}
	if len(graphs) > 0 {
		m.static.ExtensionGraphs = graphs
	}
	if dyn.CacheMaxAgeSeconds > 0 {
		m.static.CacheMaxAge = time.Duration(dyn.CacheMaxAgeSeconds) * time.Second
	}
	m.static.CacheMustRevalidate = dyn.CacheMustRevalidate
	m.static.CacheNoCache = dyn.CacheNoCache
}

// Config returns the current, possibly hot-reloaded configuration.
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.static
}
