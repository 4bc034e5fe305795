package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/engmung/portfolio-Nat/application/ports"
)

// ErrHandlerNotFound is returned when no handler is registered for a query type
var ErrHandlerNotFound = errors.New("query handler not found")

// Query represents a read-only query
type Query interface {
	Validate() error
}

// Cacheable queries opt into the caching middleware by naming their cache key
type Cacheable interface {
	CacheKey() string
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// Middleware decorates a query handler
type Middleware func(next QueryHandler) QueryHandler

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewQueryBus creates a new query bus
func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Register registers a handler for a query type
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}

	return handler.Handle(ctx, query)
}

// Ask is the typed form of QueryBus.Ask
func Ask[R any](ctx context.Context, b *QueryBus, query Query) (R, error) {
	var zero R
	result, err := b.Ask(ctx, query)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("query %T returned %T, want %T", query, result, zero)
	}
	return typed, nil
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Handle adapts a typed handler function to the bus
func Handle[Q Query, R any](fn func(ctx context.Context, query Q) (R, error)) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		q, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		return fn(ctx, q)
	})
}

// CachingMiddleware adds caching to query handlers
type CachingMiddleware struct {
	cache   ports.Cache
	ttl     int // TTL in seconds
	version func() string
}

// NewCachingMiddleware creates a new caching middleware. version scopes every key
// so entries from an older graph snapshot are never served.
func NewCachingMiddleware(cache ports.Cache, ttl int, version func() string) *CachingMiddleware {
	return &CachingMiddleware{
		cache:   cache,
		ttl:     ttl,
		version: version,
	}
}

// Wrap wraps a query handler with caching
func (m *CachingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		cacheable, ok := query.(Cacheable)
		if !ok {
			return next.Handle(ctx, query)
		}

		cacheKey := m.generateCacheKey(query, cacheable)
		if cached, found := m.cache.Get(ctx, cacheKey); found {
			return cached, nil
		}

		result, err := next.Handle(ctx, query)
		if err != nil {
			return nil, err
		}

		_ = m.cache.Set(ctx, cacheKey, result, m.ttl)
		return result, nil
	})
}

// Middleware exposes Wrap as a bus middleware
func (m *CachingMiddleware) Middleware() Middleware {
	return m.Wrap
}

func (m *CachingMiddleware) generateCacheKey(query Query, c Cacheable) string {
	v := ""
	if m.version != nil {
		v = m.version()
	}
	return fmt.Sprintf("%s:%T:%s", v, query, c.CacheKey())
}

// MetricsMiddleware adds metrics to query handlers
type MetricsMiddleware struct {
	metrics ports.Metrics
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(metrics ports.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

// Wrap wraps a query handler with metrics
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		queryType := reflect.TypeOf(query).Name()

		timer := m.metrics.StartTimer("query_duration", queryType)
		defer timer.Stop()

		m.metrics.Increment("query_count", queryType)

		result, err := next.Handle(ctx, query)
		if err != nil {
			m.metrics.Increment("query_errors", queryType)
			return nil, err
		}

		m.metrics.Increment("query_success", queryType)
		return result, nil
	})
}

// Middleware exposes Wrap as a bus middleware
func (m *MetricsMiddleware) Middleware() Middleware {
	return m.Wrap
}
