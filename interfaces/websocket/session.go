package websocket

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/queries/handlers"
	appservices "github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
	"github.com/engmung/portfolio-Nat/domain/services"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Hover messages are tiny
	maxMessageSize = 4 * 1024

	sendBufferSize = 64
)

// Session is one viewer connection and its hover state
type Session struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	state  *services.HighlightSession
	logger *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewSession creates a session over g. conn may be nil in tests that drive
// handleMessage directly.
func NewSession(hub *Hub, conn *websocket.Conn, g *aggregates.Graph, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		hub:    hub,
		conn:   conn,
		state:  services.NewHighlightSession(g),
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(zap.String("sessionID", id)),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Start registers the session and launches its pumps. A session offered to a
// stopped hub is closed straight away.
func (s *Session) Start(greeting ConnectedPayload) {
	if !s.hub.join(s) {
		s.logger.Debug("Hub stopped, closing new session")
		s.close()
		if s.conn != nil {
			s.conn.Close()
		}
		return
	}

	go s.writePump()
	go s.readPump()

	greeting.SessionID = s.id
	s.reply(MessageConnected, greeting)
}

func (s *Session) readPump() {
	defer func() {
		s.hub.leave(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			s.reply(MessageError, ErrorPayload{Message: "binary messages are not supported"})
			continue
		}
		s.handleMessage(message)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one viewer message to the hover state and queues the reply
func (s *Session) handleMessage(raw []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &msg); err != nil {
		s.reply(MessageError, ErrorPayload{Message: "malformed message"})
		return
	}

	switch msg.Type {
	case MessageHover:
		id, err := valueobjects.NewNodeID(msg.NodeID)
		if err != nil {
			s.reply(MessageHighlight, handlers.ToHighlightResult(s.state.Exit()))
			return
		}
		s.reply(MessageHighlight, handlers.ToHighlightResult(s.state.Hover(id)))

	case MessageExit:
		s.reply(MessageHighlight, handlers.ToHighlightResult(s.state.Exit()))

	case MessageSelect:
		id, err := valueobjects.NewNodeID(msg.NodeID)
		if err != nil {
			s.reply(MessageError, ErrorPayload{Message: "select requires node_id"})
			return
		}
		node, ok := s.state.Select(id)
		if !ok {
			s.reply(MessageError, ErrorPayload{Message: "unknown node: " + msg.NodeID})
			return
		}
		s.reply(MessageSelected, toSelectedPayload(s.state.Graph(), node))

	case MessagePing:
		s.reply(MessagePong, nil)

	default:
		s.reply(MessageError, ErrorPayload{Message: "unknown message type: " + string(msg.Type)})
	}
}

// rebase moves the session onto a newly published snapshot
func (s *Session) rebase(snap *appservices.Snapshot) {
	h := s.state.Rebase(snap.Graph)
	payload := RebuiltPayload{
		Version:   snap.Version,
		Highlight: handlers.ToHighlightResult(h),
	}
	if selected := s.state.Selected(); !selected.IsZero() {
		payload.Selected = selected.String()
	}
	s.reply(MessageGraphRebuilt, payload)
}

func (s *Session) reply(t MessageType, data interface{}) {
	message, err := encode(t, data)
	if err != nil {
		s.logger.Error("Failed to encode message", zap.String("type", string(t)), zap.Error(err))
		return
	}
	s.enqueue(message)
}

// enqueue never blocks; a viewer too slow to drain its buffer loses messages
func (s *Session) enqueue(message []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- message:
		return true
	default:
		s.logger.Warn("Send buffer full, dropping message")
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}
