package ports

import (
	"context"
	"errors"
	"time"

	"github.com/engmung/portfolio-Nat/domain/events"
	"github.com/engmung/portfolio-Nat/domain/services"
)

// ErrLockHeld is returned by a Locker when another owner holds the resource
var ErrLockHeld = errors.New("lock already held")

// KnowledgeSource yields the raw item listing the graph is built from.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type KnowledgeSource interface {
	// ListItems fetches the full listing. Items are returned undecoded beyond JSON shape.
	ListItems(ctx context.Context) ([]services.RawItem, error)
}

// KnowledgeFile is a file streamed back from the knowledge store
type KnowledgeFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// StoreReply is the acknowledgement returned by knowledge store mutations
type StoreReply struct {
	Message  string                 `json:"message,omitempty"`
	Filename string                 `json:"filename,omitempty"`
	Status   string                 `json:"status,omitempty"`
	Extra    map[string]interface{} `json:"-"`
}

// KnowledgeStore is the full surface of the external knowledge store
type KnowledgeStore interface {
	KnowledgeSource

	// Upload stores a knowledge file under the given name
	Upload(ctx context.Context, filename string, content []byte) (*StoreReply, error)

	// Delete removes a knowledge file
	Delete(ctx context.Context, filename string) (*StoreReply, error)

	// Rebuild asks the store to re-index its files
	Rebuild(ctx context.Context) (*StoreReply, error)

	// Template returns the starter file offered to authors
	Template(ctx context.Context) (*KnowledgeFile, error)

	// Download returns a stored knowledge file
	Download(ctx context.Context, filename string) (*KnowledgeFile, error)
}

// AIQuerier forwards free-text questions to the store's assistant
type AIQuerier interface {
	Query(ctx context.Context, query string) (string, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// ChangeNotifier fans knowledge changes out to peer instances
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, change events.KnowledgeChanged) error
}

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker grants exclusive ownership of a named resource for a bounded time
type Locker interface {
	// Acquire returns ErrLockHeld when the resource is owned by someone else
	Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (Lock, error)
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// Metrics is the instrumentation surface used by application services
type Metrics interface {
	StartTimer(metric string, labels ...string) Timer
	Increment(metric string, labels ...string)
	SetGauge(metric string, value float64, labels ...string)
}

// Timer measures one operation
type Timer interface {
	Stop()
}

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) StartTimer(string, ...string) Timer { return noopTimer{} }
func (NoopMetrics) Increment(string, ...string)         {}
func (NoopMetrics) SetGauge(string, float64, ...string) {}

type noopTimer struct{}

func (noopTimer) Stop() {}

// Tracer wraps a unit of work in a trace span
type Tracer interface {
	TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error
}
