package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands/bus"
	cmdhandlers "github.com/engmung/portfolio-Nat/application/commands/handlers"
	"github.com/engmung/portfolio-Nat/application/ports"
	querybus "github.com/engmung/portfolio-Nat/application/queries/bus"
	queryhandlers "github.com/engmung/portfolio-Nat/application/queries/handlers"
	"github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
	"github.com/engmung/portfolio-Nat/pkg/auth"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

// fakeStore is an in-memory knowledge store that also answers AI questions
type fakeStore struct {
	mu      sync.Mutex
	items   []domainservices.RawItem
	uploads []string
	deletes []string
}

func (f *fakeStore) ListItems(context.Context) ([]domainservices.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domainservices.RawItem(nil), f.items...), nil
}

func (f *fakeStore) Upload(_ context.Context, filename string, _ []byte) (*ports.StoreReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return &ports.StoreReply{Message: "stored", Filename: filename}, nil
}

func (f *fakeStore) Delete(_ context.Context, filename string) (*ports.StoreReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filename == "missing.yaml" {
		return nil, apperrors.NewNotFoundError("knowledge file")
	}
	f.deletes = append(f.deletes, filename)
	return &ports.StoreReply{Message: "deleted"}, nil
}

func (f *fakeStore) Rebuild(context.Context) (*ports.StoreReply, error) {
	return &ports.StoreReply{Message: "rebuilt"}, nil
}

func (f *fakeStore) Template(context.Context) (*ports.KnowledgeFile, error) {
	return &ports.KnowledgeFile{Filename: "template.yaml", ContentType: "application/x-yaml", Content: []byte("title: \n")}, nil
}

func (f *fakeStore) Download(_ context.Context, filename string) (*ports.KnowledgeFile, error) {
	return &ports.KnowledgeFile{Filename: filename, Content: []byte("title: x\n")}, nil
}

func (f *fakeStore) Query(_ context.Context, query string) (string, error) {
	return "answer to " + query, nil
}

func sampleItems() []domainservices.RawItem {
	return []domainservices.RawItem{
		{ID: "hub", Title: "Hub", Level: 1, Tags: []interface{}{"dev"}},
		{ID: "a", Title: "A", Level: 2, Tags: []interface{}{"dev", "ai"}},
		{ID: "leaf", Title: "Leaf", Level: 3, Tags: []interface{}{"ai"}},
	}
}

type testServer struct {
	handler   http.Handler
	store     *fakeStore
	refresher *services.GraphRefresher
}

type serverOption func(*Dependencies)

func newTestServer(t *testing.T, publish bool, opts ...serverOption) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	store := &fakeStore{items: sampleItems()}

	refresher := services.NewGraphRefresher(store, services.NewGraphBuilder(cfg, logger), nil, nil, nil, nil, nil, logger)
	if publish {
		_, err := refresher.Refresh(context.Background())
		require.NoError(t, err)
	}

	classifier := domainservices.NewClassifier(cfg.Palette)
	validator := validators.NewKnowledgeFileValidator(cfg)

	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.RegisterAll(queryBus,
		queryhandlers.NewGetGraphDataHandler(refresher, classifier, logger),
		queryhandlers.NewGraphQueryHandlers(refresher, classifier),
		queryhandlers.NewKnowledgeQueryHandlers(store, store, domainservices.NewNormalizer(cfg, logger), validator, logger),
	))

	commandBus := bus.NewCommandBus()
	require.NoError(t, cmdhandlers.RegisterAll(commandBus,
		cmdhandlers.NewRefreshGraphHandler(refresher, logger),
		cmdhandlers.NewKnowledgeCommandHandlers(store, refresher, validator, nil, nil, nil, "test", logger),
	))

	deps := Dependencies{
		CommandBus:     commandBus,
		QueryBus:       queryBus,
		FileValidator:  validator,
		Readiness:      refresher,
		AllowAnonymous: true,
		AIRateLimit:    2,
		AIRateWindow:   time.Minute,
		Logger:         logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testServer{handler: NewRouter(deps).Setup(), store: store, refresher: refresher}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProbes(t *testing.T) {
	tests := []struct {
		name       string
		publish    bool
		path       string
		wantStatus int
	}{
		{name: "health always ok", path: "/health", wantStatus: http.StatusOK},
		{name: "not ready before first graph", path: "/ready", wantStatus: http.StatusServiceUnavailable},
		{name: "ready after publish", publish: true, path: "/ready", wantStatus: http.StatusOK},
		{name: "graph before first publish", path: "/graph", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newTestServer(t, tt.publish)

			// Act
			rec := srv.do(httptest.NewRequest(http.MethodGet, tt.path, nil))

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGraphNotReady(t *testing.T) {
	// Arrange
	srv := newTestServer(t, false)

	// Act
	rec := srv.do(httptest.NewRequest(http.MethodGet, "/graph", nil))

	// Assert
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "GRAPH_NOT_READY", body["code"])
	assert.Equal(t, true, body["retryable"])
}

func TestGetGraph(t *testing.T) {
	// Arrange
	srv := newTestServer(t, true)

	// Act
	rec := srv.do(httptest.NewRequest(http.MethodGet, "/graph", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	assert.NotEmpty(t, etag)
	assert.Equal(t, "v2", rec.Header().Get("X-API-Version"))

	body := decode(t, rec)
	assert.Len(t, body["nodes"], 3)
	assert.Len(t, body["links"], 2)
	assert.Contains(t, body, "stats")
	assert.Contains(t, body, "version")

	// Act: conditional request
	req := httptest.NewRequest(http.MethodGet, "/graph", nil)
	req.Header.Set("If-None-Match", etag)
	rec = srv.do(req)

	// Assert
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestGetGraph_HoverSkipsConditional(t *testing.T) {
	// Arrange
	srv := newTestServer(t, true)
	first := srv.do(httptest.NewRequest(http.MethodGet, "/graph", nil))
	req := httptest.NewRequest(http.MethodGet, "/graph?hover=a", nil)
	req.Header.Set("If-None-Match", first.Header().Get("ETag"))

	// Act
	rec := srv.do(req)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", decode(t, rec)["hovered"])
}

func TestGraphQueries(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "node detail", path: "/graph/nodes/a", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "A", body["name"])
				assert.ElementsMatch(t, []interface{}{"hub", "leaf"}, body["neighbors"])
			},
		},
		{name: "unknown node", path: "/graph/nodes/ghost", wantStatus: http.StatusNotFound},
		{
			name: "highlight", path: "/graph/highlight?node=hub", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "hub", body["hovered"])
				assert.Equal(t, []interface{}{"a", "hub"}, body["nodes"])
			},
		},
		{
			name: "highlight without node is empty", path: "/graph/highlight", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Empty(t, body["nodes"])
			},
		},
		{
			name: "clusters", path: "/graph/clusters", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(1), body["count"])
			},
		},
		{
			name: "path", path: "/graph/path?from=hub&to=leaf", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, []interface{}{"hub", "a", "leaf"}, body["path"])
			},
		},
		{name: "path needs both ends", path: "/graph/path?from=hub", wantStatus: http.StatusBadRequest},
		{name: "unknown route", path: "/graph/nowhere", wantStatus: http.StatusNotFound},
	}

	srv := newTestServer(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			rec := srv.do(httptest.NewRequest(http.MethodGet, tt.path, nil))

			// Assert
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, decode(t, rec))
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	// Arrange
	srv := newTestServer(t, false)

	// Act
	rec := srv.do(httptest.NewRequest(http.MethodPost, "/graph/refresh", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["refreshed"])
	assert.True(t, srv.refresher.Ready())
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/knowledge/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantStored bool
	}{
		{
			name:       "yaml accepted",
			req:        func(t *testing.T) *http.Request { return multipartUpload(t, "notes.yaml", "title: Notes\n") },
			wantStatus: http.StatusCreated,
			wantStored: true,
		},
		{
			name:       "other extension rejected",
			req:        func(t *testing.T) *http.Request { return multipartUpload(t, "notes.txt", "hello") },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "oversized file rejected",
			req:        func(t *testing.T) *http.Request { return multipartUpload(t, "big.yaml", strings.Repeat("a", 2<<20)) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/knowledge/upload", strings.NewReader(""))
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newTestServer(t, true)

			// Act
			rec := srv.do(tt.req(t))

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantStored, len(srv.store.uploads) == 1)
		})
	}
}

func TestDeleteAndRebuild(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(httptest.NewRequest(http.MethodDelete, "/knowledge/files/notes.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"notes.yaml"}, srv.store.deletes)

	rec = srv.do(httptest.NewRequest(http.MethodDelete, "/knowledge/files/missing.yaml", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/knowledge/rebuild", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestMutationsRequireToken(t *testing.T) {
	jwtCfg := auth.JWTConfig{SigningMethod: "HS256", SecretKey: "0123456789abcdef0123456789abcdef", Issuer: "test"}
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)
	token, err := auth.IssueToken(jwtCfg, "admin", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "no token", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newTestServer(t, true, func(d *Dependencies) {
				d.JWTValidator = validator
				d.AllowAnonymous = false
			})
			req := httptest.NewRequest(http.MethodPost, "/graph/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			// Act
			rec := srv.do(req)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRebuildRequiresEditorRole(t *testing.T) {
	jwtCfg := auth.JWTConfig{SigningMethod: "HS256", SecretKey: "0123456789abcdef0123456789abcdef", Issuer: "test"}
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)

	tests := []struct {
		name       string
		roles      []string
		wantStatus int
	}{
		{name: "no roles", wantStatus: http.StatusForbidden},
		{name: "other role", roles: []string{"viewer"}, wantStatus: http.StatusForbidden},
		{name: "editor", roles: []string{"viewer", RebuildRole}, wantStatus: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			token, err := auth.IssueToken(jwtCfg, "ops", tt.roles, time.Hour)
			require.NoError(t, err)
			srv := newTestServer(t, true, func(d *Dependencies) {
				d.JWTValidator = validator
				d.AllowAnonymous = false
			})
			req := httptest.NewRequest(http.MethodPost, "/knowledge/rebuild", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			// Act
			rec := srv.do(req)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "FORBIDDEN")
			}
		})
	}
}

func TestMutationsClosedWithoutValidator(t *testing.T) {
	srv := newTestServer(t, true, func(d *Dependencies) { d.AllowAnonymous = false })

	rec := srv.do(httptest.NewRequest(http.MethodPost, "/knowledge/rebuild", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTemplateAndDownload(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/knowledge/template", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "template.yaml")

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/knowledge/download/notes.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "title: x\n", rec.Body.String())
}

func TestListFiles_LegacyAlias(t *testing.T) {
	srv := newTestServer(t, true)

	for _, path := range []string{"/knowledge/files", "/api/knowledge/files"} {
		t.Run(path, func(t *testing.T) {
			rec := srv.do(httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, float64(3), body["count"])
			assert.Len(t, body["files"], 3)
		})
	}

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/knowledge/files", nil))
	assert.Equal(t, "true", rec.Header().Get("X-API-Deprecated"))
}

func TestAIQuery_RateLimitedPerIP(t *testing.T) {
	// Arrange: the limiter allows two questions per window
	srv := newTestServer(t, true, func(d *Dependencies) {
		d.AILimiter = auth.NewSlidingWindowLimiter(d.AIRateLimit, d.AIRateWindow)
	})
	ask := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"query":"what is 3D?"}`))
		req.RemoteAddr = remote
		return srv.do(req)
	}

	// Act & Assert
	first := ask("/ai/query", "10.0.0.1:1000")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "answer to what is 3D?", decode(t, first)["response"])

	assert.Equal(t, http.StatusOK, ask("/api/ai/query", "10.0.0.1:1001").Code, "legacy alias shares the limit")

	limited := ask("/ai/query", "10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, ask("/ai/query", "10.0.0.2:1000").Code, "other clients are unaffected")
}

func TestAIQuery_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty question", body: `{"query":"   "}`},
		{name: "malformed body", body: `{"query":`},
		{name: "unknown field", body: `{"q":"x"}`},
	}

	srv := newTestServer(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(httptest.NewRequest(http.MethodPost, "/ai/query", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, true, decode(t, rec)["error"])
		})
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, method+" "+route)
}

func TestMetricsUseRoutePatterns(t *testing.T) {
	// Arrange
	observer := &recordingObserver{}
	srv := newTestServer(t, true, func(d *Dependencies) { d.Observer = observer })

	// Act
	srv.do(httptest.NewRequest(http.MethodGet, "/graph/nodes/a", nil))
	srv.do(httptest.NewRequest(http.MethodGet, "/graph/nodes/hub", nil))

	// Assert
	assert.Equal(t, []string{"GET /graph/nodes/{nodeID}", "GET /graph/nodes/{nodeID}"}, observer.routes)
}
