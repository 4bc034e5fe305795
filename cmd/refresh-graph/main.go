// Package main implements the scheduled graph refresh Lambda. It rebuilds the
// graph from the knowledge store, which publishes graph.rebuilt to EventBridge.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands"
	"github.com/engmung/portfolio-Nat/infrastructure/config"
	"github.com/engmung/portfolio-Nat/infrastructure/di"
)

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// Result summarizes the refresh for the invocation log
type Result struct {
	Reason     string `json:"reason"`
	Generation uint64 `json:"generation"`
	NodeCount  int    `json:"node_count"`
	LinkCount  int    `json:"link_count"`
	DurationMS int64  `json:"duration_ms"`
}

// handler accepts scheduled events and knowledge.changed events alike
func handler(ctx context.Context, raw json.RawMessage) (*Result, error) {
	defer container.Flush(ctx)
	start := time.Now()

	reason := "schedule"
	var event events.CloudWatchEvent
	if err := json.Unmarshal(raw, &event); err == nil && event.DetailType != "" && event.DetailType != "Scheduled Event" {
		reason = event.DetailType
	}

	if err := container.CommandBus.Send(ctx, commands.RefreshGraphCommand{Reason: reason}); err != nil {
		container.Logger.Error("Graph refresh failed", zap.String("reason", reason), zap.Error(err))
		return nil, err
	}

	result := &Result{Reason: reason, DurationMS: time.Since(start).Milliseconds()}
	if snap := container.Refresher.Current(); snap != nil {
		result.Generation = snap.Version.Generation
		result.NodeCount = snap.Version.NodeCount
		result.LinkCount = snap.Version.LinkCount
	}
	container.Logger.Info("Graph refreshed",
		zap.String("reason", reason),
		zap.Uint64("generation", result.Generation),
		zap.Int64("durationMS", result.DurationMS),
	)
	return result, nil
}

func main() {
	lambda.Start(handler)
}
