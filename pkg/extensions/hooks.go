package extensions

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// HookPoint represents a point in the application where hooks can be registered
type HookPoint string

const (
	// Graph lifecycle
	HookGraphPublished HookPoint = "graph_published"
	HookRefreshFailed  HookPoint = "refresh_failed"
	HookRefreshStale   HookPoint = "refresh_stale"

	// Knowledge store mutations
	HookKnowledgeChanged HookPoint = "knowledge_changed"

	// Presentation
	HookPaletteChanged HookPoint = "palette_changed"
)

// Hook represents a function that can be executed at a hook point
type Hook func(ctx context.Context, data interface{}) error

// HookManager manages hooks for extension points
type HookManager struct {
	hooks map[HookPoint][]Hook
	mu    sync.RWMutex
}

// NewHookManager creates a new hook manager
func NewHookManager() *HookManager {
	return &HookManager{
		hooks: make(map[HookPoint][]Hook),
	}
}

// Register registers a hook for a specific hook point
func (m *HookManager) Register(point HookPoint, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks[point] = append(m.hooks[point], hook)
}

// Count reports how many hooks are registered at a point
func (m *HookManager) Count(point HookPoint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks[point])
}

func (m *HookManager) snapshot(point HookPoint) []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hooks := make([]Hook, len(m.hooks[point]))
	copy(hooks, m.hooks[point])
	return hooks
}

// Execute runs all hooks for a point in registration order, stopping at the first error
func (m *HookManager) Execute(ctx context.Context, point HookPoint, data interface{}) error {
	for i, hook := range m.snapshot(point) {
		if err := hook(ctx, data); err != nil {
			return fmt.Errorf("hook %d at %s failed: %w", i, point, err)
		}
	}
	return nil
}

// ExecuteParallel runs all hooks for a point concurrently and returns the first error.
// Every hook runs to completion even when one fails.
func (m *HookManager) ExecuteParallel(ctx context.Context, point HookPoint, data interface{}) error {
	var g errgroup.Group
	for i, hook := range m.snapshot(point) {
		i, hook := i, hook
		g.Go(func() error {
			if err := hook(ctx, data); err != nil {
				return fmt.Errorf("hook %d at %s failed: %w", i, point, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Clear removes all hooks for a specific hook point
func (m *HookManager) Clear(point HookPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.hooks, point)
}

// ClearAll removes all registered hooks
func (m *HookManager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[HookPoint][]Hook)
}
