package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appservices "github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/versioning"
	"github.com/engmung/portfolio-Nat/tests/fixtures"
)

// received mirrors OutboundMessage with a raw payload
type received struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

type highlightData struct {
	Hovered string   `json:"hovered"`
	Nodes   []string `json:"nodes"`
	Links   []int    `json:"links"`
}

func testGraph(t *testing.T, withLeaf bool) *aggregates.Graph {
	t.Helper()
	nodes := []*entities.Node{
		fixtures.Node("hub", 1, "x"),
		fixtures.Node("a", 2, "x"),
		fixtures.Node("b", 2, "x"),
	}
	links := []entities.Link{
		fixtures.Link("hub", "a", "x"),
		fixtures.Link("hub", "b", "x"),
	}
	if withLeaf {
		nodes = append(nodes, fixtures.Node("leaf", 3, "x"))
		links = append(links, fixtures.Link("a", "leaf", "x"))
	}
	g, err := aggregates.NewGraph(nodes, links)
	require.NoError(t, err)
	return g
}

func snapshot(g *aggregates.Graph, generation uint64) *appservices.Snapshot {
	return &appservices.Snapshot{
		Graph:   g,
		Version: &versioning.GraphVersion{Generation: generation, NodeCount: g.NodeCount(), LinkCount: g.LinkCount()},
	}
}

func next(t *testing.T, s *Session) received {
	t.Helper()
	select {
	case raw := <-s.send:
		var msg received
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message queued")
		return received{}
	}
}

func TestSession_HandleMessage(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  MessageType
		wantNodes []string
	}{
		{name: "hover highlights neighborhood", input: `{"type":"hover","node_id":"a"}`, wantType: MessageHighlight, wantNodes: []string{"a", "hub", "leaf"}},
		{name: "hover unknown node clears", input: `{"type":"hover","node_id":"ghost"}`, wantType: MessageHighlight, wantNodes: []string{}},
		{name: "hover without id clears", input: `{"type":"hover"}`, wantType: MessageHighlight, wantNodes: []string{}},
		{name: "exit clears", input: `{"type":"exit"}`, wantType: MessageHighlight, wantNodes: []string{}},
		{name: "select known node", input: `{"type":"select","node_id":"hub"}`, wantType: MessageSelected},
		{name: "select unknown node", input: `{"type":"select","node_id":"ghost"}`, wantType: MessageError},
		{name: "ping", input: `{"type":"ping"}`, wantType: MessagePong},
		{name: "unknown type", input: `{"type":"zoom"}`, wantType: MessageError},
		{name: "malformed", input: `{`, wantType: MessageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			s := NewSession(NewHub(nil, nil), nil, testGraph(t, true), zap.NewNop())

			// Act
			s.handleMessage([]byte(tt.input))

			// Assert
			msg := next(t, s)
			assert.Equal(t, tt.wantType, msg.Type)
			if tt.wantNodes != nil {
				var h highlightData
				require.NoError(t, json.Unmarshal(msg.Data, &h))
				assert.Equal(t, tt.wantNodes, h.Nodes)
			}
		})
	}
}

func TestSession_SelectPayload(t *testing.T) {
	// Arrange
	s := NewSession(NewHub(nil, nil), nil, testGraph(t, true), zap.NewNop())

	// Act
	s.handleMessage([]byte(`{"type":"select","node_id":"a"}`))

	// Assert
	msg := next(t, s)
	var payload SelectedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "a", payload.ID)
	assert.Equal(t, 2, payload.Level)
	assert.ElementsMatch(t, []string{"hub", "leaf"}, payload.Neighbors)
}

func TestSession_ClosedDropsMessages(t *testing.T) {
	s := NewSession(NewHub(nil, nil), nil, testGraph(t, false), zap.NewNop())
	s.close()
	s.close()

	assert.False(t, s.enqueue([]byte("x")))
}

func TestHub_RebasesSessionsOnPublish(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil, zap.NewNop())
	go func() { _ = hub.Run(ctx) }()

	s := NewSession(hub, nil, testGraph(t, true), zap.NewNop())
	require.True(t, hub.join(s))
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	s.handleMessage([]byte(`{"type":"hover","node_id":"a"}`))
	_ = next(t, s)
	s.handleMessage([]byte(`{"type":"select","node_id":"leaf"}`))
	_ = next(t, s)

	// Act: the leaf disappears in the new graph
	require.NoError(t, hub.OnGraphPublished(ctx, snapshot(testGraph(t, false), 2)))

	// Assert
	msg := next(t, s)
	require.Equal(t, MessageGraphRebuilt, msg.Type)
	var payload struct {
		Version   versioning.GraphVersion `json:"version"`
		Highlight highlightData           `json:"highlight"`
		Selected  string                  `json:"selected"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, uint64(2), payload.Version.Generation)
	assert.Equal(t, []string{"a", "hub"}, payload.Highlight.Nodes)
	assert.Empty(t, payload.Selected, "selection of a removed node is dropped")
}

func TestHub_UnregisterAndShutdown(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, zap.NewNop())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	first := NewSession(hub, nil, testGraph(t, false), zap.NewNop())
	second := NewSession(hub, nil, testGraph(t, false), zap.NewNop())
	require.True(t, hub.join(first))
	require.True(t, hub.join(second))
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	// Act
	hub.leave(first)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	// Assert
	assert.Equal(t, 0, hub.Count())
	assert.False(t, first.enqueue([]byte("x")))
	assert.False(t, second.enqueue([]byte("x")))
}

func TestHub_LeaveAfterStopDoesNotBlock(t *testing.T) {
	// Arrange: more sessions than the unregister buffer holds
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, zap.NewNop())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	sessions := make([]*Session, 250)
	for i := range sessions {
		sessions[i] = NewSession(hub, nil, testGraph(t, false), zap.NewNop())
		require.True(t, hub.join(sessions[i]))
	}
	require.Eventually(t, func() bool { return hub.Count() == len(sessions) }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	// Act
	left := make(chan struct{})
	go func() {
		for _, s := range sessions {
			hub.leave(s)
		}
		close(left)
	}()

	// Assert
	select {
	case <-left:
	case <-time.After(2 * time.Second):
		t.Fatal("leave blocked after the hub stopped")
	}
	assert.False(t, hub.join(NewSession(hub, nil, testGraph(t, false), zap.NewNop())))
}

func TestHub_OnGraphPublishedRejectsOtherPayloads(t *testing.T) {
	hub := NewHub(nil, nil)

	assert.Error(t, hub.OnGraphPublished(context.Background(), "nope"))
	assert.Error(t, hub.OnGraphPublished(context.Background(), (*appservices.Snapshot)(nil)))
}

func TestHub_OnGraphPublishedKeepsNewest(t *testing.T) {
	// Arrange: no Run loop, so nothing drains the channel
	hub := NewHub(nil, nil)
	g := testGraph(t, false)

	// Act
	require.NoError(t, hub.OnGraphPublished(context.Background(), snapshot(g, 1)))
	require.NoError(t, hub.OnGraphPublished(context.Background(), snapshot(g, 2)))

	// Assert
	pending := <-hub.published
	assert.Equal(t, uint64(2), pending.Version.Generation)
}

type staticSnapshots struct{ snap *appservices.Snapshot }

func (s staticSnapshots) Current() *appservices.Snapshot { return s.snap }

func TestHandler_HoverOverWebSocket(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil, zap.NewNop())
	go func() { _ = hub.Run(ctx) }()

	handler := NewHandler(hub, staticSnapshots{snap: snapshot(testGraph(t, true), 7)}, DefaultConfig(), zap.NewNop())
	server := httptest.NewServer(handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() received {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// Act & Assert: greeting carries the version
	greeting := read()
	require.Equal(t, MessageConnected, greeting.Type)
	var hello ConnectedPayload
	require.NoError(t, json.Unmarshal(greeting.Data, &hello))
	assert.NotEmpty(t, hello.SessionID)
	assert.Equal(t, uint64(7), hello.Version.Generation)

	// Act & Assert: hover round trip
	require.NoError(t, conn.WriteJSON(InboundMessage{Type: MessageHover, NodeID: "hub"}))
	msg := read()
	require.Equal(t, MessageHighlight, msg.Type)
	var h highlightData
	require.NoError(t, json.Unmarshal(msg.Data, &h))
	assert.Equal(t, "hub", h.Hovered)
	assert.Equal(t, []string{"a", "b", "hub"}, h.Nodes)
	assert.Equal(t, []int{0, 1}, h.Links)
}

func TestHandler_SessionLimit(t *testing.T) {
	// Arrange
	hub := NewHub(nil, nil)
	hub.sessions[NewSession(hub, nil, aggregates.EmptyGraph(), zap.NewNop())] = struct{}{}
	cfg := DefaultConfig()
	cfg.MaxSessions = 1
	handler := NewHandler(hub, staticSnapshots{}, cfg, nil)

	// Act
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graph/ws", nil))

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no list allows all", origin: "https://evil.example", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://evil.example", want: true},
		{name: "listed origin", allowed: []string{"https://portfolio.example/"}, origin: "https://portfolio.example", want: true},
		{name: "unlisted origin", allowed: []string{"https://portfolio.example"}, origin: "https://evil.example", want: false},
		{name: "non-browser client", allowed: []string{"https://portfolio.example"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/graph/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, originChecker(tt.allowed)(req))
		})
	}
}
