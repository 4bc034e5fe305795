package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engmung/portfolio-Nat/domain/events"
)

type fakePublisher struct {
	channel string
	message []byte
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	return goredis.NewIntResult(1, f.err)
}

func TestChangeBus_NotifyChange(t *testing.T) {
	// Arrange
	pub := &fakePublisher{}
	bus := NewChangeBus(nil, "graph-changes", "instance-a", nil)
	bus.pub = pub
	change := events.NewKnowledgeChanged(events.ChangeUploaded, "robotics.yaml", "", time.Now())

	// Act
	err := bus.NotifyChange(context.Background(), change)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "graph-changes", pub.channel)
	var sent events.KnowledgeChanged
	require.NoError(t, json.Unmarshal(pub.message, &sent))
	assert.Equal(t, "instance-a", sent.Origin, "empty origin is stamped with this instance")
	assert.Equal(t, events.ChangeUploaded, sent.Kind)
}

func TestChangeBus_NotifyChangeErrors(t *testing.T) {
	bus := NewChangeBus(nil, "c", "a", nil)
	assert.Error(t, bus.NotifyChange(context.Background(), events.KnowledgeChanged{}))

	bus.pub = &fakePublisher{err: errors.New("connection refused")}
	assert.ErrorContains(t, bus.NotifyChange(context.Background(), events.KnowledgeChanged{}), "connection refused")
}

func TestChangeBus_Handle(t *testing.T) {
	own, _ := json.Marshal(events.NewKnowledgeChanged(events.ChangeDeleted, "a.yaml", "instance-a", time.Now()))
	peer, _ := json.Marshal(events.NewKnowledgeChanged(events.ChangeDeleted, "a.yaml", "instance-b", time.Now()))

	tests := []struct {
		name      string
		payload   string
		wantCalls int
	}{
		{name: "peer change forwarded", payload: string(peer), wantCalls: 1},
		{name: "own change ignored", payload: string(own)},
		{name: "garbage ignored", payload: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			bus := NewChangeBus(nil, "c", "instance-a", nil)
			calls := 0

			// Act
			bus.handle(context.Background(), tt.payload, func(_ context.Context, change events.KnowledgeChanged) {
				calls++
				assert.Equal(t, "instance-b", change.Origin)
			})

			// Assert
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestChangeBus_RunRequiresClient(t *testing.T) {
	bus := NewChangeBus(nil, "c", "a", nil)
	assert.Error(t, bus.Run(context.Background(), func(context.Context, events.KnowledgeChanged) {}))
}
