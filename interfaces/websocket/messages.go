package websocket

import (
	"encoding/json"
	"time"

	"github.com/engmung/portfolio-Nat/application/queries"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/versioning"
)

// MessageType names a message on the hover channel
type MessageType string

// Client to server
const (
	MessageHover  MessageType = "hover"
	MessageExit   MessageType = "exit"
	MessageSelect MessageType = "select"
	MessagePing   MessageType = "ping"
)

// Server to client
const (
	MessageConnected    MessageType = "connected"
	MessageHighlight    MessageType = "highlight"
	MessageSelected     MessageType = "selected"
	MessageGraphRebuilt MessageType = "graph_rebuilt"
	MessageError        MessageType = "error"
	MessagePong         MessageType = "pong"
)

// InboundMessage is what viewers send. NodeID is ignored for exit and ping.
type InboundMessage struct {
	Type   MessageType `json:"type"`
	NodeID string      `json:"node_id,omitempty"`
}

// OutboundMessage wraps every server message
type OutboundMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ConnectedPayload greets a new session
type ConnectedPayload struct {
	SessionID string                   `json:"session_id"`
	Version   *versioning.GraphVersion `json:"version,omitempty"`
}

// SelectedPayload is the detail hand-off for a selected node
type SelectedPayload struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Filename  string   `json:"filename,omitempty"`
	Level     int      `json:"level"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary,omitempty"`
	Neighbors []string `json:"neighbors"`
}

// RebuiltPayload tells a session the graph changed under it. Highlight is the
// session's hover recomputed against the new graph.
type RebuiltPayload struct {
	Version   *versioning.GraphVersion    `json:"version"`
	Highlight *queries.GetHighlightResult `json:"highlight"`
	Selected  string                      `json:"selected,omitempty"`
}

// ErrorPayload reports a rejected message
type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(t MessageType, data interface{}) ([]byte, error) {
	return json.Marshal(OutboundMessage{Type: t, Timestamp: time.Now().UnixMilli(), Data: data})
}

func toSelectedPayload(g *aggregates.Graph, node *entities.Node) SelectedPayload {
	neighbors := g.Neighbors(node.ID())
	ids := make([]string, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.String()
	}
	return SelectedPayload{
		ID:        node.ID().String(),
		Name:      node.Name(),
		Filename:  node.Filename(),
		Level:     node.Level(),
		Tags:      node.Tags().Values(),
		Summary:   node.Content().Summary(),
		Neighbors: ids,
	}
}
