package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigWatcher hot-reloads the parts of Config that are cheap to
// change without a restart — the extension-graph mapping and the
// cache-control policy — from a YAML file through
// fsnotify-based ConfigWatcher.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	current *DynamicConfig
	mu      sync.RWMutex
	onChange []func(*DynamicConfig)
	logger  *zap.Logger
	stopCh  chan struct{}
}

// DynamicConfig is the subset of Config a running server can pick up
// without a restart.
type DynamicConfig struct {
	ExtensionGraphs     map[string]string `yaml:"extensionGraphs"`
	CacheMaxAgeSeconds  int               `yaml:"cacheMaxAgeSeconds"`
	CacheMustRevalidate bool              `yaml:"cacheMustRevalidate"`
	CacheNoCache        bool              `yaml:"cacheNoCache"`
}

// NewConfigWatcher loads configPath and starts watching it for
// changes.
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	initial, err := loadDynamicConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: loading initial dynamic config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating file watcher: %w", err)
	}
	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watching config file: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "" {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("config: failed to watch config directory", zap.Error(err))
		}
	}

	return &ConfigWatcher{
		path:    configPath,
		watcher: watcher,
		current: initial,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for file changes in the background.
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching and releases the underlying file handle.
func (w *ConfigWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("configuration watcher stopped")
}

func (w *ConfigWatcher) watchLoop() {
	var debounce *time.Timer
	const debounceDuration = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDuration, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config file watcher error", zap.Error(err))
		}
	}
}

func (w *ConfigWatcher) reload() {
	next, err := loadDynamicConfigFile(w.path)
	if err != nil {
		w.logger.Error("failed to reload dynamic config, keeping current", zap.Error(err))
		return
	}
	if err := validateDynamicConfig(next); err != nil {
		w.logger.Error("invalid dynamic config, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = next
	w.mu.Unlock()

	w.logger.Info("dynamic config reloaded", zap.Int("extensionGraphs", len(next.ExtensionGraphs)))
	for _, handler := range w.onChange {
		go handler(next)
	}
}

// OnChange registers a callback fired after every successful reload.
func (w *ConfigWatcher) OnChange(handler func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// GetCurrent returns the most recently loaded DynamicConfig.
func (w *ConfigWatcher) GetCurrent() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func validateDynamicConfig(c *DynamicConfig) error {
	if c.CacheMaxAgeSeconds < 0 {
		return fmt.Errorf("cacheMaxAgeSeconds must not be negative")
	}
	return nil
}

func loadDynamicConfigFile(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	var c DynamicConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	if err := validateDynamicConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
