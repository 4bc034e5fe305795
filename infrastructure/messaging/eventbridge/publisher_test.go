package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engmung/portfolio-Nat/domain/events"
)

type recordingClient struct {
	calls  [][]types.PutEventsRequestEntry
	failed int32
}

func (c *recordingClient) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	c.calls = append(c.calls, in.Entries)
	out := &eventbridge.PutEventsOutput{FailedEntryCount: c.failed}
	for range in.Entries {
		out.Entries = append(out.Entries, types.PutEventsResultEntry{})
	}
	if c.failed > 0 {
		out.Entries[0].ErrorCode = aws.String("InternalFailure")
	}
	return out, nil
}

func TestEventBridgePublisher_PublishBatchChunks(t *testing.T) {
	// Arrange
	client := &recordingClient{}
	p := NewEventBridgePublisher(client, "graph-bus", nil)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var batch []events.DomainEvent
	for i := 0; i < 23; i++ {
		batch = append(batch, events.NewKnowledgeChanged(events.ChangeUploaded, fmt.Sprintf("f%d.yaml", i), "node-a", ts))
	}

	// Act
	err := p.PublishBatch(context.Background(), batch)

	// Assert
	require.NoError(t, err)
	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0], 10)
	assert.Len(t, client.calls[2], 3)

	entry := client.calls[0][0]
	assert.Equal(t, "graph-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeKnowledgeChanged, aws.ToString(entry.DetailType))

	var detail events.KnowledgeChanged
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "f0.yaml", detail.Filename)
}

func TestEventBridgePublisher_FailedEntries(t *testing.T) {
	client := &recordingClient{failed: 1}
	p := NewEventBridgePublisher(client, "graph-bus", nil)

	err := p.Publish(context.Background(), events.NewGraphRebuilt(3, "etag", 1, 0, "deterministic", time.Now()))

	assert.ErrorContains(t, err, "1 events failed")
}

func TestEventBridgePublisher_EmptyBatch(t *testing.T) {
	client := &recordingClient{}
	p := NewEventBridgePublisher(client, "graph-bus", nil)

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Empty(t, client.calls)
}
