package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands"
	"github.com/engmung/portfolio-Nat/application/commands/bus"
	"github.com/engmung/portfolio-Nat/application/queries"
	querybus "github.com/engmung/portfolio-Nat/application/queries/bus"
	"github.com/engmung/portfolio-Nat/domain/versioning"
	"github.com/engmung/portfolio-Nat/pkg/common"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
	"github.com/engmung/portfolio-Nat/pkg/utils"
)

// GraphHandler serves the synthesized graph and its hover queries
type GraphHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *apperrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// GetGraph handles GET /graph?hover={id}. Without a hover the response is tagged
// with the snapshot ETag and honors If-None-Match.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	hover := r.URL.Query().Get("hover")

	if hover == "" {
		version, err := querybus.Ask[*versioning.GraphVersion](r.Context(), h.queryBus, queries.GetGraphVersionQuery{})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		etag := version.ETag()
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if !version.BuiltAt.IsZero() {
			w.Header().Set("Last-Modified", utils.HTTPDate(version.BuiltAt))
		}
		if matchesETag(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	result, err := querybus.Ask[*queries.GetGraphDataResult](r.Context(), h.queryBus, queries.GetGraphDataQuery{Hover: hover})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetNode handles GET /graph/nodes/{nodeID}
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	result, err := querybus.Ask[*queries.GetNodeResult](r.Context(), h.queryBus, queries.GetNodeQuery{NodeID: chi.URLParam(r, "nodeID")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetHighlight handles GET /graph/highlight?node={id}
func (h *GraphHandler) GetHighlight(w http.ResponseWriter, r *http.Request) {
	result, err := querybus.Ask[*queries.GetHighlightResult](r.Context(), h.queryBus, queries.GetHighlightQuery{NodeID: r.URL.Query().Get("node")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetClusters handles GET /graph/clusters
func (h *GraphHandler) GetClusters(w http.ResponseWriter, r *http.Request) {
	result, err := querybus.Ask[*queries.GetClustersResult](r.Context(), h.queryBus, queries.GetClustersQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// FindPath handles GET /graph/path?from=&to=
func (h *GraphHandler) FindPath(w http.ResponseWriter, r *http.Request) {
	query := queries.FindPathQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	result, err := querybus.Ask[*queries.FindPathResult](r.Context(), h.queryBus, query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Refresh handles POST /graph/refresh and reports the version now published
func (h *GraphHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.RefreshGraphCommand{Reason: "api"}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	version, err := querybus.Ask[*versioning.GraphVersion](r.Context(), h.queryBus, queries.GetGraphVersionQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Graph refreshed on request",
		zap.Uint64("generation", version.Generation),
		zap.String("requestID", common.ExtractRequestID(r)),
	)
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed": true,
		"version":   version,
	})
}

func matchesETag(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
