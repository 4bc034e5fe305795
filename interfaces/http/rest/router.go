package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands/bus"
	"github.com/engmung/portfolio-Nat/application/ports"
	querybus "github.com/engmung/portfolio-Nat/application/queries/bus"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	"github.com/engmung/portfolio-Nat/interfaces/http/rest/handlers"
	"github.com/engmung/portfolio-Nat/interfaces/http/rest/middleware"
	v1 "github.com/engmung/portfolio-Nat/interfaces/http/rest/v1"
	"github.com/engmung/portfolio-Nat/pkg/auth"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

// RebuildRole is required on tokens that trigger a full store re-index
const RebuildRole = "editor"

// Dependencies are the collaborators the HTTP surface needs. MetricsHandler,
// Observer, WebSocket, JWTValidator and AILimiter are optional.
type Dependencies struct {
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	FileValidator *validators.KnowledgeFileValidator
	Readiness     handlers.Readiness
	Health        func() map[string]string

	MetricsHandler http.Handler
	Observer       middleware.HTTPObserver
	Metrics        ports.Metrics

	WebSocket http.Handler

	JWTValidator   *auth.JWTValidator
	AllowAnonymous bool

	AILimiter    auth.RateLimiter
	AIRateLimit  int
	AIRateWindow time.Duration

	EnableCORS  bool
	CORSOrigins []string
	Debug       bool
	Logger      *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	deps Dependencies
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Router{deps: deps}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	d := rt.deps
	errs := apperrors.NewErrorHandler(d.Logger, d.Debug)

	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errs.Middleware)
	router.Use(middleware.Logger(d.Logger))
	if d.Observer != nil {
		router.Use(middleware.Metrics(d.Observer))
	}
	router.Use(versionMiddleware)

	if d.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins(d.CORSOrigins),
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Request-ID"},
			ExposedHeaders:   []string{"ETag", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	authenticate := middleware.Authenticate(d.JWTValidator, errs, d.AllowAnonymous, d.Logger)
	aiLimit := middleware.RateLimit(d.AILimiter, "ai_query", d.AIRateLimit, d.AIRateWindow, d.Metrics, errs, d.Logger)

	health := handlers.NewHealthHandler(d.Readiness, d.Health)
	graph := handlers.NewGraphHandler(d.CommandBus, d.QueryBus, errs, d.Logger)
	knowledge := handlers.NewKnowledgeHandler(d.CommandBus, d.QueryBus, d.FileValidator, errs, d.Logger)
	ai := handlers.NewAIHandler(d.QueryBus, errs, d.Logger)

	// Probes
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	if d.MetricsHandler != nil {
		router.Handle("/metrics", d.MetricsHandler)
	}

	// Graph endpoints
	router.Route("/graph", func(r chi.Router) {
		r.Get("/", graph.GetGraph)
		r.Get("/nodes/{nodeID}", graph.GetNode)
		r.Get("/highlight", graph.GetHighlight)
		r.Get("/clusters", graph.GetClusters)
		r.Get("/path", graph.FindPath)
		if d.WebSocket != nil {
			r.Handle("/ws", d.WebSocket)
		}
		r.With(authenticate).Post("/refresh", graph.Refresh)
	})

	// Knowledge store proxy
	router.Route("/knowledge", func(r chi.Router) {
		r.Get("/files", knowledge.ListFiles)
		r.Get("/template", knowledge.Template)
		r.Get("/download/{filename}", knowledge.Download)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/upload", knowledge.Upload)
			r.Delete("/files/{filename}", knowledge.Delete)
			r.With(middleware.RequireRole(RebuildRole, errs)).Post("/rebuild", knowledge.Rebuild)
		})
	})

	router.With(aiLimit).Post("/ai/query", ai.Query)

	// Legacy /api aliases
	router.Mount("/api", v1.NewRouter(graph, knowledge, ai, aiLimit))

	return router
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v2")
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("X-API-Version", "v1")
			w.Header().Set("X-API-Deprecated", "true")
		}
		next.ServeHTTP(w, r)
	})
}

func corsOrigins(configured []string) []string {
	if len(configured) == 0 {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	return configured
}
