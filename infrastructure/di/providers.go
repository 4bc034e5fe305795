package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands/bus"
	commandhandlers "github.com/engmung/portfolio-Nat/application/commands/handlers"
	"github.com/engmung/portfolio-Nat/application/ports"
	querybus "github.com/engmung/portfolio-Nat/application/queries/bus"
	queryhandlers "github.com/engmung/portfolio-Nat/application/queries/handlers"
	"github.com/engmung/portfolio-Nat/application/services"
	domainconfig "github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
	"github.com/engmung/portfolio-Nat/domain/versioning"
	"github.com/engmung/portfolio-Nat/infrastructure/config"
	"github.com/engmung/portfolio-Nat/infrastructure/knowledgeapi"
	"github.com/engmung/portfolio-Nat/infrastructure/messaging/eventbridge"
	redisbus "github.com/engmung/portfolio-Nat/infrastructure/messaging/redis"
	infraobs "github.com/engmung/portfolio-Nat/infrastructure/observability"
	"github.com/engmung/portfolio-Nat/infrastructure/persistence/dynamodb"
	"github.com/engmung/portfolio-Nat/infrastructure/persistence/memory"
	"github.com/engmung/portfolio-Nat/pkg/auth"
	"github.com/engmung/portfolio-Nat/pkg/extensions"
	"github.com/engmung/portfolio-Nat/pkg/observability"
)

// metricsNamespace prefixes Prometheus metric names
const metricsNamespace = "knowledge_graph"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("instance", cfg.InstanceID)), nil
}

// ProvideDomainConfig derives the synthesis rules and loads the palette file
func ProvideDomainConfig(cfg *config.Config, watcher *config.PaletteWatcher) (*domainconfig.DomainConfig, error) {
	dc := cfg.DomainConfig()
	dc.Palette = watcher.Current()
	if err := dc.Validate(); err != nil {
		return nil, err
	}
	return dc, nil
}

// ProvidePaletteWatcher loads the palette; the watch loop is started by the caller
func ProvidePaletteWatcher(cfg *config.Config, logger *zap.Logger) (*config.PaletteWatcher, error) {
	return config.NewPaletteWatcher(cfg.PaletteFile, logger)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *infraobs.Collector {
	return infraobs.NewCollector(metricsNamespace)
}

// ProvideCloudWatchMetrics creates the CloudWatch sink when metrics are enabled
func ProvideCloudWatchMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *infraobs.CloudWatchMetrics {
	if !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("PortfolioGraph/%s", cfg.Environment)
	return infraobs.NewCloudWatchMetrics(namespace, client, logger)
}

// ProvideMetrics combines every configured metrics sink
func ProvideMetrics(collector *infraobs.Collector, cloudWatch *infraobs.CloudWatchMetrics) ports.Metrics {
	if cloudWatch == nil {
		return infraobs.Combine(collector)
	}
	return infraobs.Combine(collector, cloudWatch)
}

// ProvideTracer creates the X-Ray tracer when tracing is enabled
func ProvideTracer(cfg *config.Config) ports.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("knowledge-graph")
}

// ProvideKnowledgeClient creates the knowledge store client
func ProvideKnowledgeClient(cfg *config.Config, tracer ports.Tracer, logger *zap.Logger) *knowledgeapi.Client {
	return knowledgeapi.NewClient(knowledgeapi.Config{
		BaseURL: cfg.KnowledgeAPIURL,
		Timeout: cfg.KnowledgeTimeout,
		Breaker: knowledgeapi.DefaultBreakerConfig(),
	}, tracer, logger)
}

// ProvideEventPublisher publishes domain events to EventBridge when a bus is configured
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return nil
	}
	return eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, logger)
}

// ProvideChangeBus connects to redis when a URL is configured
func ProvideChangeBus(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redisbus.ChangeBus, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}
	rdb, err := redisbus.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	changeBus := redisbus.NewChangeBus(rdb, cfg.RedisChannel, cfg.InstanceID, logger)
	return changeBus, func() { _ = changeBus.Close() }, nil
}

// ProvideLocker uses DynamoDB when a locks table is configured, otherwise a process-local lock
func ProvideLocker(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.Locker {
	if cfg.LocksTable == "" {
		return memory.NewLocker()
	}
	return dynamodb.NewDistributedLock(client, cfg.LocksTable, logger)
}

// ProvideConnectionRepository stores API Gateway WebSocket connections
func ProvideConnectionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.ConnectionRepository {
	if cfg.ConnectionsTable == "" {
		return nil
	}
	return dynamodb.NewConnectionRepository(client, cfg.ConnectionsTable, logger)
}

// ProvideAIRateLimiter limits the AI proxy per client. A configured table makes the limit
// hold across instances; the in-memory window takes over when DynamoDB errors. A token
// bucket in front of the window smooths bursts.
func ProvideAIRateLimiter(client *awsdynamodb.Client, cfg *config.Config, metrics ports.Metrics, logger *zap.Logger) (auth.RateLimiter, func()) {
	var windowed auth.RateLimiter = auth.NewSlidingWindowLimiter(cfg.AIRateLimit, cfg.AIRateWindow)
	if cfg.RateLimitTable != "" {
		distributed := auth.NewDistributedRateLimiter(client, cfg.RateLimitTable, cfg.AIRateLimit, cfg.AIRateWindow, "AI")
		windowed = auth.NewFallbackLimiter(distributed, windowed, func(err error) {
			metrics.Increment("rate_limited", "fallback")
			logger.Warn("Distributed rate limiter failed, using local window", zap.Error(err))
		})
	}
	if cfg.AIBurst <= 0 {
		return windowed, func() {}
	}

	refill := cfg.AIRateWindow / time.Duration(cfg.AIRateLimit)
	if refill <= 0 {
		refill = time.Second
	}
	burst := auth.NewTokenBucketLimiter(cfg.AIBurst, refill)
	return auth.NewCompositeRateLimiter(burst, windowed), burst.Stop
}

// ProvideJWTValidator validates mutation tokens. Without a secret, mutations are
// only open outside production.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(JWTConfig(cfg))
}

// JWTConfig maps application settings onto the validator configuration
func JWTConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	}
}

// ProvideInMemoryCache creates the query cache. Cached views carry palette colors,
// so a palette change empties it.
func ProvideInMemoryCache(metrics ports.Metrics, hooks *extensions.HookManager) (*InMemoryCache, func()) {
	cache := NewInMemoryCache(metrics)
	hooks.Register(extensions.HookPaletteChanged, func(ctx context.Context, _ interface{}) error {
		return cache.Clear(ctx)
	})
	return cache, cache.Close
}

// ProvideClassifier creates the classifier and keeps it in step with the palette file
func ProvideClassifier(watcher *config.PaletteWatcher, hooks *extensions.HookManager, logger *zap.Logger) *domainservices.Classifier {
	classifier := domainservices.NewClassifier(watcher.Current())
	watcher.OnChange(func(p domainconfig.Palette) {
		classifier.SetPalette(p)
		if err := hooks.Execute(context.Background(), extensions.HookPaletteChanged, p); err != nil {
			logger.Warn("Palette changed hook failed", zap.Error(err))
		}
	})
	return classifier
}

// ProvideHookManager creates the shared hook manager
func ProvideHookManager() *extensions.HookManager {
	return extensions.NewHookManager()
}

// ProvideGraphRefresher creates the refresher that owns the published snapshot
func ProvideGraphRefresher(
	store *knowledgeapi.Client,
	dc *domainconfig.DomainConfig,
	publisher ports.EventPublisher,
	hooks *extensions.HookManager,
	metrics ports.Metrics,
	tracer ports.Tracer,
	logger *zap.Logger,
) *services.GraphRefresher {
	builder := services.NewGraphBuilder(dc, logger)
	return services.NewGraphRefresher(store, builder, versioning.NewVersioningService(), publisher, hooks, metrics, tracer, logger)
}

// ProvideFileValidator creates the upload and filename validator
func ProvideFileValidator(dc *domainconfig.DomainConfig) *validators.KnowledgeFileValidator {
	return validators.NewKnowledgeFileValidator(dc)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	cfg *config.Config,
	store *knowledgeapi.Client,
	refresher *services.GraphRefresher,
	fileValidator *validators.KnowledgeFileValidator,
	locker ports.Locker,
	publisher ports.EventPublisher,
	changeBus *redisbus.ChangeBus,
	cache *InMemoryCache,
	metrics ports.Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger.Sugar()),
		bus.MetricsMiddleware(metrics),
		bus.InvalidationMiddleware(cache),
	)

	var notifier ports.ChangeNotifier
	if changeBus != nil {
		notifier = changeBus
	}

	refreshHandler := commandhandlers.NewRefreshGraphHandler(refresher, logger)
	knowledgeHandlers := commandhandlers.NewKnowledgeCommandHandlers(
		store,
		refresher,
		fileValidator,
		locker,
		publisher,
		notifier,
		cfg.InstanceID,
		logger,
	)

	if err := commandhandlers.RegisterAll(commandBus, refreshHandler, knowledgeHandlers); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	cfg *config.Config,
	store *knowledgeapi.Client,
	refresher *services.GraphRefresher,
	classifier *domainservices.Classifier,
	dc *domainconfig.DomainConfig,
	fileValidator *validators.KnowledgeFileValidator,
	cache *InMemoryCache,
	metrics ports.Metrics,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	caching := querybus.NewCachingMiddleware(cache, cfg.CacheTTL, refresher.VersionKey)
	queryBus := querybus.NewQueryBus(
		querybus.NewMetricsMiddleware(metrics).Middleware(),
		caching.Middleware(),
	)

	graphHandler := queryhandlers.NewGetGraphDataHandler(refresher, classifier, logger)
	structureHandlers := queryhandlers.NewGraphQueryHandlers(refresher, classifier)
	knowledgeHandlers := queryhandlers.NewKnowledgeQueryHandlers(
		store,
		store,
		domainservices.NewNormalizer(dc, logger),
		fileValidator,
		logger,
	)

	if err := queryhandlers.RegisterAll(queryBus, graphHandler, structureHandlers, knowledgeHandlers); err != nil {
		return nil, err
	}
	return queryBus, nil
}
