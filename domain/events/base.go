package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event type names as published on the bus
const (
	TypeGraphRebuilt     = "graph.rebuilt"
	TypeRefreshFailed    = "graph.refresh_failed"
	TypeKnowledgeChanged = "knowledge.changed"
)

// GraphAggregateID is the aggregate id used for the single knowledge graph
const GraphAggregateID = "knowledge-graph"

// GraphRebuilt is raised when a new snapshot has been published
type GraphRebuilt struct {
	BaseEvent
	Generation uint64 `json:"generation"`
	ETag       string `json:"etag"`
	NodeCount  int    `json:"node_count"`
	LinkCount  int    `json:"link_count"`
	Mode       string `json:"mode"`
}

// NewGraphRebuilt creates a GraphRebuilt event
func NewGraphRebuilt(generation uint64, etag string, nodeCount, linkCount int, mode string, timestamp time.Time) GraphRebuilt {
	return GraphRebuilt{
		BaseEvent: BaseEvent{
			AggregateID: GraphAggregateID,
			EventType:   TypeGraphRebuilt,
			Timestamp:   timestamp,
			Version:     int(generation),
		},
		Generation: generation,
		ETag:       etag,
		NodeCount:  nodeCount,
		LinkCount:  linkCount,
		Mode:       mode,
	}
}

// RefreshFailed is raised when fetching the listing failed and the last-good graph was kept
type RefreshFailed struct {
	BaseEvent
	Generation uint64 `json:"generation"`
	Reason     string `json:"reason"`
}

// NewRefreshFailed creates a RefreshFailed event
func NewRefreshFailed(generation uint64, reason string, timestamp time.Time) RefreshFailed {
	return RefreshFailed{
		BaseEvent: BaseEvent{
			AggregateID: GraphAggregateID,
			EventType:   TypeRefreshFailed,
			Timestamp:   timestamp,
			Version:     int(generation),
		},
		Generation: generation,
		Reason:     reason,
	}
}

// ChangeKind describes what happened to the knowledge store
type ChangeKind string

const (
	ChangeUploaded ChangeKind = "uploaded"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRebuilt  ChangeKind = "rebuilt"
)

// KnowledgeChanged is raised after a successful mutation of the knowledge store
type KnowledgeChanged struct {
	BaseEvent
	Kind     ChangeKind `json:"kind"`
	Filename string     `json:"filename,omitempty"`
	Origin   string     `json:"origin"`
}

// NewKnowledgeChanged creates a KnowledgeChanged event. Origin names the emitting instance.
func NewKnowledgeChanged(kind ChangeKind, filename, origin string, timestamp time.Time) KnowledgeChanged {
	return KnowledgeChanged{
		BaseEvent: BaseEvent{
			AggregateID: GraphAggregateID,
			EventType:   TypeKnowledgeChanged,
			Timestamp:   timestamp,
			Version:     1,
		},
		Kind:     kind,
		Filename: filename,
		Origin:   origin,
	}
}
