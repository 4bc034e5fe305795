package di

import (
	"context"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands/bus"
	"github.com/engmung/portfolio-Nat/application/ports"
	querybus "github.com/engmung/portfolio-Nat/application/queries/bus"
	"github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
	"github.com/engmung/portfolio-Nat/infrastructure/config"
	"github.com/engmung/portfolio-Nat/infrastructure/knowledgeapi"
	redisbus "github.com/engmung/portfolio-Nat/infrastructure/messaging/redis"
	"github.com/engmung/portfolio-Nat/infrastructure/observability"
	"github.com/engmung/portfolio-Nat/infrastructure/persistence/dynamodb"
	"github.com/engmung/portfolio-Nat/pkg/auth"
	"github.com/engmung/portfolio-Nat/pkg/extensions"
)

// Container holds all application dependencies. Optional collaborators are nil
// when their configuration is absent.
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Store          *knowledgeapi.Client
	Refresher      *services.GraphRefresher
	Classifier     *domainservices.Classifier
	FileValidator  *validators.KnowledgeFileValidator
	Hooks          *extensions.HookManager
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	Cache          *InMemoryCache
	Collector      *observability.Collector
	CloudWatch     *observability.CloudWatchMetrics
	Metrics        ports.Metrics
	Tracer         ports.Tracer
	Publisher      ports.EventPublisher
	ChangeBus      *redisbus.ChangeBus
	Locker         ports.Locker
	AIRateLimiter  auth.RateLimiter
	JWTValidator   *auth.JWTValidator
	PaletteWatcher *config.PaletteWatcher
	Connections    *dynamodb.ConnectionRepository
}

// Flush ships buffered metrics and syncs the logger. Lambda handlers call it before
// returning because the runtime may freeze the process afterwards.
func (c *Container) Flush(ctx context.Context) {
	if c.CloudWatch != nil {
		c.CloudWatch.Flush(ctx)
	}
	_ = c.Logger.Sync()
}

// Health reports readiness of the container's collaborators
func (c *Container) Health() map[string]string {
	status := map[string]string{"graph": "not_ready"}
	if c.Refresher.Ready() {
		status["graph"] = "ready"
	}
	if c.ChangeBus != nil {
		status["redis"] = "configured"
	}
	if c.Publisher != nil {
		status["eventbridge"] = "configured"
	}
	return status
}
