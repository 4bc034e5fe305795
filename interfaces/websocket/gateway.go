package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/domain/events"
	"github.com/engmung/portfolio-Nat/infrastructure/persistence/dynamodb"
)

// ConnectionStore lists and forgets API Gateway WebSocket connections
type ConnectionStore interface {
	ListActive(ctx context.Context) ([]dynamodb.Connection, error)
	Delete(ctx context.Context, connectionID string) error
}

// PostToConnectionAPI is the slice of the management API the broadcaster uses
type PostToConnectionAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// RebuildNotice tells a gateway viewer to refetch the graph. Hover state lives in
// the browser there, so no highlight is recomputed.
type RebuildNotice struct {
	Generation uint64 `json:"generation"`
	ETag       string `json:"etag"`
	NodeCount  int    `json:"node_count"`
	LinkCount  int    `json:"link_count"`
	Mode       string `json:"mode"`
}

// BroadcastResult counts the outcome of one broadcast
type BroadcastResult struct {
	Sent   int
	Gone   int
	Failed int
}

// Broadcaster pushes rebuild notices to every stored gateway connection
type Broadcaster struct {
	store     ConnectionStore
	clientFor func(endpoint string) PostToConnectionAPI
	metrics   ports.Metrics
	logger    *zap.Logger
}

// NewBroadcaster creates a broadcaster. clientFor returns a management client for
// a connection's endpoint (domain/stage).
func NewBroadcaster(store ConnectionStore, clientFor func(endpoint string) PostToConnectionAPI, metrics ports.Metrics, logger *zap.Logger) *Broadcaster {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{store: store, clientFor: clientFor, metrics: metrics, logger: logger}
}

// BroadcastRebuilt sends a graph_rebuilt notice. Connections the gateway reports
// gone are deleted. It fails only when every send failed.
func (b *Broadcaster) BroadcastRebuilt(ctx context.Context, ev events.GraphRebuilt) (BroadcastResult, error) {
	var result BroadcastResult

	msg, err := encode(MessageGraphRebuilt, RebuildNotice{
		Generation: ev.Generation,
		ETag:       ev.ETag,
		NodeCount:  ev.NodeCount,
		LinkCount:  ev.LinkCount,
		Mode:       ev.Mode,
	})
	if err != nil {
		return result, fmt.Errorf("failed to encode rebuild notice: %w", err)
	}

	conns, err := b.store.ListActive(ctx)
	if err != nil {
		return result, err
	}

	clients := make(map[string]PostToConnectionAPI)
	for _, conn := range conns {
		client, ok := clients[conn.Endpoint]
		if !ok {
			client = b.clientFor(conn.Endpoint)
			clients[conn.Endpoint] = client
		}

		_, err := client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(conn.ConnectionID),
			Data:         msg,
		})
		if err == nil {
			result.Sent++
			continue
		}

		var gone *apigwtypes.GoneException
		if errors.As(err, &gone) {
			result.Gone++
			if err := b.store.Delete(ctx, conn.ConnectionID); err != nil {
				b.logger.Warn("Failed to remove stale connection", zap.String("connectionID", conn.ConnectionID), zap.Error(err))
			}
			continue
		}

		result.Failed++
		b.logger.Warn("Failed to post to connection", zap.String("connectionID", conn.ConnectionID), zap.Error(err))
	}

	b.metrics.SetGauge("ws_gateway_connections", float64(result.Sent))
	b.logger.Info("Broadcast rebuild notice",
		zap.Uint64("generation", ev.Generation),
		zap.Int("sent", result.Sent),
		zap.Int("gone", result.Gone),
		zap.Int("failed", result.Failed),
	)

	if result.Failed > 0 && result.Sent == 0 {
		return result, errors.New("all rebuild notices failed")
	}
	return result, nil
}
