// Package main implements the API Gateway WebSocket $connect and $disconnect
// handler. Viewing the graph is public; a token, when sent, must be valid and
// tags the connection with its user.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

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
	if container.Connections == nil {
		log.Fatal("CONNECTIONS_TABLE is required")
	}
}

func respond(status int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: http.StatusText(status)}
}

func handler(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	defer container.Flush(ctx)

	logger := container.Logger.With(zap.String("connectionID", req.RequestContext.ConnectionID))

	switch req.RequestContext.EventType {
	case "DISCONNECT":
		if err := container.Connections.Delete(ctx, req.RequestContext.ConnectionID); err != nil {
			logger.Warn("Failed to forget connection", zap.Error(err))
		}
		return respond(http.StatusOK), nil

	case "CONNECT":
		userID, ok := authorize(req, logger)
		if !ok {
			return respond(http.StatusUnauthorized), nil
		}
		endpoint := req.RequestContext.DomainName + "/" + req.RequestContext.Stage
		if _, err := container.Connections.Save(ctx, req.RequestContext.ConnectionID, userID, endpoint); err != nil {
			logger.Error("Failed to store connection", zap.Error(err))
			return respond(http.StatusInternalServerError), nil
		}
		logger.Info("Viewer connected", zap.String("userID", userID))
		return respond(http.StatusOK), nil

	default:
		return respond(http.StatusBadRequest), nil
	}
}

// authorize reads the token from the query string or the Authorization header
func authorize(req events.APIGatewayWebsocketProxyRequest, logger *zap.Logger) (string, bool) {
	token := req.QueryStringParameters["token"]
	if token == "" {
		token = req.Headers["Authorization"]
	}
	if token == "" {
		return "", true
	}
	if container.JWTValidator == nil {
		logger.Debug("Token ignored, no signing secret configured")
		return "", true
	}

	claims, err := container.JWTValidator.ValidateToken(token)
	if err != nil {
		logger.Info("Rejected connection token", zap.Error(err))
		return "", false
	}
	return claims.UserID, true
}

func main() {
	lambda.Start(handler)
}
