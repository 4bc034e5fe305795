package websocket

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	appservices "github.com/engmung/portfolio-Nat/application/services"
)

// Hub tracks live hover sessions and moves them onto every newly published graph
type Hub struct {
	sessions map[*Session]struct{}
	mu       sync.RWMutex

	register   chan *Session
	unregister chan *Session
	published  chan *appservices.Snapshot
	// done is closed when Run returns
	done chan struct{}

	// latest is owned by Run
	latest *appservices.Snapshot

	metrics ports.Metrics
	logger  *zap.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(metrics ports.Metrics, logger *zap.Logger) *Hub {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions:   make(map[*Session]struct{}),
		register:   make(chan *Session, 100),
		unregister: make(chan *Session, 100),
		published:  make(chan *appservices.Snapshot, 1),
		done:       make(chan struct{}),
		metrics:    metrics,
		logger:     logger,
	}
}

// Run serves registrations and graph publications until ctx is done, then closes
// every session. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case s := <-h.register:
			h.add(s)
			if h.latest != nil && s.state.Graph() != h.latest.Graph {
				s.rebase(h.latest)
			}

		case s := <-h.unregister:
			h.remove(s)

		case snap := <-h.published:
			h.latest = snap
			h.rebaseAll(snap)
		}
	}
}

// OnGraphPublished is registered on the graph published hook
func (h *Hub) OnGraphPublished(_ context.Context, data interface{}) error {
	snap, ok := data.(*appservices.Snapshot)
	if !ok || snap == nil {
		return fmt.Errorf("unexpected graph published payload %T", data)
	}

	// only the newest snapshot matters; replace an undelivered one
	for {
		select {
		case h.published <- snap:
			return nil
		default:
		}
		select {
		case <-h.published:
		default:
		}
	}
}

// join hands s to the run loop. It reports false once the hub has stopped.
func (h *Hub) join(s *Session) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

// leave hands s to the run loop for removal. After the hub has stopped the
// session is already closed, so there is nothing to wait for.
func (h *Hub) leave(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Count returns the number of live sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	h.mu.Unlock()

	h.metrics.SetGauge("ws_sessions", float64(count))
	h.logger.Debug("Session registered", zap.String("sessionID", s.id), zap.Int("sessions", count))
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	count := len(h.sessions)
	h.mu.Unlock()

	s.close()
	h.metrics.SetGauge("ws_sessions", float64(count))
	h.logger.Debug("Session unregistered", zap.String("sessionID", s.id), zap.Int("sessions", count))
}

func (h *Hub) rebaseAll(snap *appservices.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.sessions {
		s.rebase(snap)
	}
	h.logger.Info("Rebased hover sessions",
		zap.Uint64("generation", snap.Version.Generation),
		zap.Int("sessions", len(h.sessions)),
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.sessions {
		s.close()
		delete(h.sessions, s)
	}
	h.metrics.SetGauge("ws_sessions", 0)
}
