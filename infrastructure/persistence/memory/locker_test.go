package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engmung/portfolio-Nat/application/ports"
)

func TestLocker(t *testing.T) {
	// Arrange
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocker()
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	// Act & Assert: exclusive while live
	first, err := l.Acquire(ctx, "rebuild", "a", time.Minute)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "rebuild", "b", time.Minute)
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	// other resources are independent
	_, err = l.Acquire(ctx, "other", "b", time.Minute)
	assert.NoError(t, err)

	// expired leases can be taken over, and the stale holder cannot release the new one
	now = now.Add(2 * time.Minute)
	second, err := l.Acquire(ctx, "rebuild", "b", time.Minute)
	require.NoError(t, err)
	require.NoError(t, first.Release(ctx))
	_, err = l.Acquire(ctx, "rebuild", "c", time.Minute)
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	// release frees the resource
	require.NoError(t, second.Release(ctx))
	_, err = l.Acquire(ctx, "rebuild", "c", time.Minute)
	assert.NoError(t, err)
}
