// Package main implements the Lambda that tells API Gateway WebSocket viewers
// the graph was rebuilt. It is triggered by the graph.rebuilt EventBridge rule.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"go.uber.org/zap"

	domainevents "github.com/engmung/portfolio-Nat/domain/events"
	"github.com/engmung/portfolio-Nat/infrastructure/config"
	"github.com/engmung/portfolio-Nat/infrastructure/di"
	"github.com/engmung/portfolio-Nat/interfaces/websocket"
)

var (
	container   *di.Container
	broadcaster *websocket.Broadcaster
)

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	container, _, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	if container.Connections == nil {
		log.Fatal("CONNECTIONS_TABLE is required")
	}

	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	clientFor := func(endpoint string) websocket.PostToConnectionAPI {
		if cfg.WebSocketEndpoint != "" {
			endpoint = cfg.WebSocketEndpoint
		}
		if !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		return apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	broadcaster = websocket.NewBroadcaster(container.Connections, clientFor, container.Metrics, container.Logger)
}

func handler(ctx context.Context, event events.CloudWatchEvent) error {
	defer container.Flush(ctx)

	if event.DetailType != domainevents.TypeGraphRebuilt {
		container.Logger.Debug("Ignoring event", zap.String("detailType", event.DetailType))
		return nil
	}

	var rebuilt domainevents.GraphRebuilt
	if err := json.Unmarshal(event.Detail, &rebuilt); err != nil {
		return fmt.Errorf("failed to parse event detail: %w", err)
	}

	_, err := broadcaster.BroadcastRebuilt(ctx, rebuilt)
	return err
}

func main() {
	lambda.Start(handler)
}
