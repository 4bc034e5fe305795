package handlers

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/application/queries"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
)

// KnowledgeQueryHandlers proxies read operations to the knowledge store
type KnowledgeQueryHandlers struct {
	store      ports.KnowledgeStore
	querier    ports.AIQuerier
	normalizer *domainservices.Normalizer
	validator  *validators.KnowledgeFileValidator
	logger     *zap.Logger
}

// NewKnowledgeQueryHandlers creates the knowledge store query handlers
func NewKnowledgeQueryHandlers(
	store ports.KnowledgeStore,
	querier ports.AIQuerier,
	normalizer *domainservices.Normalizer,
	validator *validators.KnowledgeFileValidator,
	logger *zap.Logger,
) *KnowledgeQueryHandlers {
	return &KnowledgeQueryHandlers{
		store:      store,
		querier:    querier,
		normalizer: normalizer,
		validator:  validator,
		logger:     logger,
	}
}

// ListFiles returns the store listing, normalized the same way the graph sees it.
// Duplicates are listed; only the graph drops them.
func (h *KnowledgeQueryHandlers) ListFiles(ctx context.Context, query queries.ListKnowledgeFilesQuery) (*queries.ListKnowledgeFilesResult, error) {
	raws, err := h.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	result := &queries.ListKnowledgeFilesResult{
		Files: make([]queries.KnowledgeFileSummary, 0, len(raws)),
		Count: len(raws),
	}
	for i, raw := range raws {
		node := h.normalizer.Normalize(raw, i)
		if node == nil {
			continue
		}
		result.Files = append(result.Files, queries.KnowledgeFileSummary{
			ID:       node.ID().String(),
			Filename: node.Filename(),
			Name:     node.Name(),
			Level:    node.Level(),
			Tags:     node.Tags().Values(),
		})
	}
	return result, nil
}

// GetTemplate returns the starter file
func (h *KnowledgeQueryHandlers) GetTemplate(ctx context.Context, query queries.GetTemplateQuery) (*ports.KnowledgeFile, error) {
	return h.store.Template(ctx)
}

// Download returns a stored knowledge file
func (h *KnowledgeQueryHandlers) Download(ctx context.Context, query queries.DownloadKnowledgeFileQuery) (*ports.KnowledgeFile, error) {
	if err := h.validator.ValidateFileName(query.Filename); err != nil {
		return nil, err
	}
	return h.store.Download(ctx, query.Filename)
}

// AskAI forwards a question to the assistant
func (h *KnowledgeQueryHandlers) AskAI(ctx context.Context, query queries.AskAIQuery) (*queries.AskAIResult, error) {
	if err := h.validator.ValidateQuery(query.Query); err != nil {
		return nil, err
	}

	answer, err := h.querier.Query(ctx, strings.TrimSpace(query.Query))
	if err != nil {
		h.logger.Warn("AI query failed", zap.Int("queryLength", len(query.Query)), zap.Error(err))
		return nil, err
	}
	return &queries.AskAIResult{Response: answer}, nil
}
