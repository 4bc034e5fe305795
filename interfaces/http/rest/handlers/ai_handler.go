package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/queries"
	querybus "github.com/engmung/portfolio-Nat/application/queries/bus"
	"github.com/engmung/portfolio-Nat/pkg/common"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

const maxAIRequestBytes = 16 * 1024

// AIHandler forwards questions to the knowledge store's assistant
type AIHandler struct {
	queryBus *querybus.QueryBus
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(queryBus *querybus.QueryBus, errs *apperrors.ErrorHandler, logger *zap.Logger) *AIHandler {
	return &AIHandler{queryBus: queryBus, errors: errs, logger: logger}
}

// Query handles POST /ai/query with body {"query": "..."}
func (h *AIHandler) Query(w http.ResponseWriter, r *http.Request) {
	var query queries.AskAIQuery
	if err := common.ParseJSONBody(w, r, &query, maxAIRequestBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	result, err := querybus.Ask[*queries.AskAIResult](r.Context(), h.queryBus, query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
