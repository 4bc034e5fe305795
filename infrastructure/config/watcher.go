package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domainconfig "github.com/engmung/portfolio-Nat/domain/config"
)

const paletteDebounce = 500 * time.Millisecond

// PaletteWatcher hot reloads the palette file. The parent directory is watched
// because editors usually replace files instead of writing them in place.
type PaletteWatcher struct {
	path      string
	logger    *zap.Logger
	mu        sync.RWMutex
	current   domainconfig.Palette
	callbacks []func(domainconfig.Palette)
	debounce  time.Duration
}

// NewPaletteWatcher loads the palette once and prepares a watcher for it
func NewPaletteWatcher(path string, logger *zap.Logger) (*PaletteWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := LoadPalette(path)
	if err != nil {
		return nil, err
	}
	return &PaletteWatcher{
		path:     path,
		logger:   logger,
		current:  p,
		debounce: paletteDebounce,
	}, nil
}

// Current returns the last successfully loaded palette
func (w *PaletteWatcher) Current() domainconfig.Palette {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload
func (w *PaletteWatcher) OnChange(fn func(domainconfig.Palette)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Run watches the palette file until ctx is cancelled. Without a path it only
// waits for cancellation.
func (w *PaletteWatcher) Run(ctx context.Context) error {
	if w.path == "" {
		<-ctx.Done()
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch palette directory: %w", err)
	}
	w.logger.Info("Palette hot reloading enabled", zap.String("path", w.path))

	target := filepath.Clean(w.path)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("Palette file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.Reload)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Palette watcher error", zap.Error(err))

		case <-ctx.Done():
			w.logger.Info("Stopping palette watcher")
			return nil
		}
	}
}

// Reload re-reads the palette file. An invalid file keeps the previous palette.
func (w *PaletteWatcher) Reload() {
	p, err := LoadPalette(w.path)
	if err != nil {
		w.logger.Error("Invalid palette after reload, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = p
	callbacks := make([]func(domainconfig.Palette), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(p)
	}
	w.logger.Info("Palette reloaded", zap.Int("callbacks_notified", len(callbacks)))
}
