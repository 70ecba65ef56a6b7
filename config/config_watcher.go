package config

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Verify at compile time that ConfigWatcher implements Watcher
var _ Watcher = (*ConfigWatcher)(nil)

// ConfigWatcher manages configuration hot reloading.
type ConfigWatcher struct {
	// Using atomic.Value for thread-safe config access
	currentConfig atomic.Value
	configPath    string
	watcher       *fsnotify.Watcher
	logger        *zap.Logger

	mu          sync.Mutex
	subscribers []chan<- *Config
}

// NewConfigWatcher loads the configuration at configPath and starts
// watching the file for changes.
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	cw := &ConfigWatcher{
		configPath: configPath,
		watcher:    watcher,
		logger:     logger,
	}

	initialConfig, err := LoadFile(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("load initial config: %w", err)
	}
	cw.currentConfig.Store(initialConfig)

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config file: %w", err)
	}

	go cw.watchConfig()
	return cw, nil
}

// Subscribe allows components to receive config updates. Subscribers that
// are not ready when a reload happens miss that update.
func (cw *ConfigWatcher) Subscribe() <-chan *Config {
	ch := make(chan *Config, 1)
	cw.mu.Lock()
	cw.subscribers = append(cw.subscribers, ch)
	cw.mu.Unlock()
	return ch
}

// GetCurrentConfig returns the current configuration thread-safely.
func (cw *ConfigWatcher) GetCurrentConfig() *Config {
	return cw.currentConfig.Load().(*Config)
}

func (cw *ConfigWatcher) watchConfig() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				cw.handleConfigChange()
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("config watcher error", zap.Error(err))
		}
	}
}

func (cw *ConfigWatcher) handleConfigChange() {
	cw.logger.Info("detected config file change, reloading")

	newConfig, err := LoadFile(cw.configPath)
	if err != nil {
		cw.logger.Error("failed to load new config", zap.Error(err))
		return
	}

	cw.currentConfig.Store(newConfig)

	cw.mu.Lock()
	for _, sub := range cw.subscribers {
		select {
		case sub <- newConfig:
		default:
		}
	}
	cw.mu.Unlock()

	cw.logger.Info("configuration reloaded")
}

// Close stops watching the configuration file.
func (cw *ConfigWatcher) Close() error {
	return cw.watcher.Close()
}
