package extensions

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookManager_ExecuteInOrder(t *testing.T) {
	// Arrange
	m := NewHookManager()
	var order []int
	m.Register(HookGraphPublished, func(ctx context.Context, data interface{}) error {
		order = append(order, 1)
		return nil
	})
	m.Register(HookGraphPublished, func(ctx context.Context, data interface{}) error {
		order = append(order, 2)
		return nil
	})

	// Act
	err := m.Execute(context.Background(), HookGraphPublished, nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 2, m.Count(HookGraphPublished))
}

func TestHookManager_ExecuteStopsAtFirstError(t *testing.T) {
	m := NewHookManager()
	boom := errors.New("boom")
	called := false
	m.Register(HookRefreshFailed, func(ctx context.Context, data interface{}) error { return boom })
	m.Register(HookRefreshFailed, func(ctx context.Context, data interface{}) error {
		called = true
		return nil
	})

	err := m.Execute(context.Background(), HookRefreshFailed, nil)

	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestHookManager_ExecuteParallelRunsEveryHook(t *testing.T) {
	// Arrange
	m := NewHookManager()
	var calls atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 5; i++ {
		fail := i == 2
		m.Register(HookKnowledgeChanged, func(ctx context.Context, data interface{}) error {
			calls.Add(1)
			if fail {
				return boom
			}
			return nil
		})
	}

	// Act
	err := m.ExecuteParallel(context.Background(), HookKnowledgeChanged, "payload")

	// Assert
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(5), calls.Load())
}

func TestHookManager_Clear(t *testing.T) {
	m := NewHookManager()
	m.Register(HookPaletteChanged, func(ctx context.Context, data interface{}) error { return errors.New("x") })
	m.Register(HookGraphPublished, func(ctx context.Context, data interface{}) error { return nil })

	m.Clear(HookPaletteChanged)
	assert.NoError(t, m.Execute(context.Background(), HookPaletteChanged, nil))
	assert.Equal(t, 1, m.Count(HookGraphPublished))

	m.ClearAll()
	assert.Equal(t, 0, m.Count(HookGraphPublished))
}
