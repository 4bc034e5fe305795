package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engmung/portfolio-Nat/domain/events"
	"github.com/engmung/portfolio-Nat/infrastructure/persistence/dynamodb"
)

type fakeConnections struct {
	conns   []dynamodb.Connection
	deleted []string
	listErr error
}

func (f *fakeConnections) ListActive(context.Context) ([]dynamodb.Connection, error) {
	return f.conns, f.listErr
}

func (f *fakeConnections) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeGateway struct {
	endpoint string
	posted   map[string][]byte
	errs     map[string]error
}

func (g *fakeGateway) PostToConnection(_ context.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	id := aws.ToString(in.ConnectionId)
	if err := g.errs[id]; err != nil {
		return nil, err
	}
	g.posted[id] = in.Data
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestBroadcaster_BroadcastRebuilt(t *testing.T) {
	tests := []struct {
		name        string
		errs        map[string]error
		wantResult  BroadcastResult
		wantDeleted []string
		wantErr     bool
	}{
		{
			name:       "all delivered",
			wantResult: BroadcastResult{Sent: 2},
		},
		{
			name:        "gone connection is removed",
			errs:        map[string]error{"c2": &apigwtypes.GoneException{}},
			wantResult:  BroadcastResult{Sent: 1, Gone: 1},
			wantDeleted: []string{"c2"},
		},
		{
			name:       "every send failing is an error",
			errs:       map[string]error{"c1": errors.New("boom"), "c2": errors.New("boom")},
			wantResult: BroadcastResult{Failed: 2},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := &fakeConnections{conns: []dynamodb.Connection{
				{ConnectionID: "c1", Endpoint: "abc.execute-api/prod"},
				{ConnectionID: "c2", Endpoint: "abc.execute-api/prod"},
			}}
			gateways := map[string]*fakeGateway{}
			clientFor := func(endpoint string) PostToConnectionAPI {
				g := &fakeGateway{endpoint: endpoint, posted: map[string][]byte{}, errs: tt.errs}
				gateways[endpoint] = g
				return g
			}
			b := NewBroadcaster(store, clientFor, nil, nil)
			ev := events.NewGraphRebuilt(4, `"g4-abc"`, 3, 2, "deterministic", time.Now())

			// Act
			result, err := b.BroadcastRebuilt(context.Background(), ev)

			// Assert
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantResult, result)
			assert.Equal(t, tt.wantDeleted, store.deleted)
			assert.Len(t, gateways, 1, "one client per endpoint")
		})
	}
}

func TestBroadcaster_NoticePayload(t *testing.T) {
	// Arrange
	store := &fakeConnections{conns: []dynamodb.Connection{{ConnectionID: "c1", Endpoint: "e"}}}
	gw := &fakeGateway{posted: map[string][]byte{}}
	b := NewBroadcaster(store, func(string) PostToConnectionAPI { return gw }, nil, nil)

	// Act
	_, err := b.BroadcastRebuilt(context.Background(), events.NewGraphRebuilt(9, "etag", 5, 4, "random", time.Now()))

	// Assert
	require.NoError(t, err)
	var msg struct {
		Type MessageType   `json:"type"`
		Data RebuildNotice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(gw.posted["c1"], &msg))
	assert.Equal(t, MessageGraphRebuilt, msg.Type)
	assert.Equal(t, RebuildNotice{Generation: 9, ETag: "etag", NodeCount: 5, LinkCount: 4, Mode: "random"}, msg.Data)
}

func TestBroadcaster_ListFailure(t *testing.T) {
	store := &fakeConnections{listErr: errors.New("throttled")}
	b := NewBroadcaster(store, nil, nil, nil)

	_, err := b.BroadcastRebuilt(context.Background(), events.NewGraphRebuilt(1, "e", 0, 0, "deterministic", time.Now()))

	assert.Error(t, err)
}
