package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	appservices "github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
)

// SnapshotSource yields the published graph new sessions start from
type SnapshotSource interface {
	Current() *appservices.Snapshot
}

// Config holds WebSocket upgrade configuration
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins lists browser origins; "*" or an empty list allows any
	AllowedOrigins []string
	MaxSessions    int
}

// DefaultConfig returns default WebSocket configuration
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		MaxSessions:     1000,
	}
}

// Handler upgrades viewer connections into hover sessions
type Handler struct {
	hub       *Hub
	snapshots SnapshotSource
	upgrader  websocket.Upgrader
	config    Config
	logger    *zap.Logger
}

// NewHandler creates the upgrade handler
func NewHandler(hub *Hub, snapshots SnapshotSource, config Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:       hub,
		snapshots: snapshots,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
		config: config,
		logger: logger,
	}
}

// ServeHTTP handles GET /graph/ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxSessions > 0 && h.hub.Count() >= h.config.MaxSessions {
		h.logger.Warn("Session limit reached", zap.Int("sessions", h.hub.Count()))
		http.Error(w, "too many viewers", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err), zap.String("remoteAddr", r.RemoteAddr))
		return
	}

	graph := aggregates.EmptyGraph()
	var greeting ConnectedPayload
	if snap := h.snapshots.Current(); snap != nil {
		graph = snap.Graph
		greeting.Version = snap.Version
	}

	session := NewSession(h.hub, conn, graph, h.logger)
	session.Start(greeting)

	h.logger.Info("Hover session started",
		zap.String("sessionID", session.ID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[u.Scheme+"://"+u.Host]
		return ok
	}
}
