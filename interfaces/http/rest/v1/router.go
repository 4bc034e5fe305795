package v1

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/engmung/portfolio-Nat/interfaces/http/rest/handlers"
)

// NewRouter serves the /api aliases older viewers still call. It is mounted under
// the main router, which has already applied logging, metrics and CORS.
func NewRouter(
	graphHandler *handlers.GraphHandler,
	knowledgeHandler *handlers.KnowledgeHandler,
	aiHandler *handlers.AIHandler,
	aiLimit func(http.Handler) http.Handler,
) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/graph", graphHandler.GetGraph).Methods(http.MethodGet)
	api.HandleFunc("/knowledge/files", knowledgeHandler.ListFiles).Methods(http.MethodGet)
	api.Handle("/ai/query", aiLimit(http.HandlerFunc(aiHandler.Query))).Methods(http.MethodPost)
	api.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	api.Use(deprecationHeaders)

	return router
}

// deprecationHeaders points clients at the unprefixed routes
func deprecationHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Deprecated", "true")
		w.Header().Set("Link", `</knowledge/files>; rel="successor-version"`)
		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","version":"v1"}`))
}
