package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands"
	"github.com/engmung/portfolio-Nat/application/services"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

// Refresher rebuilds and publishes the graph
type Refresher interface {
	Refresh(ctx context.Context) (*services.Snapshot, error)
}

// RefreshGraphHandler handles explicit refresh requests
type RefreshGraphHandler struct {
	refresher Refresher
	logger    *zap.Logger
}

// NewRefreshGraphHandler creates a new refresh handler
func NewRefreshGraphHandler(refresher Refresher, logger *zap.Logger) *RefreshGraphHandler {
	return &RefreshGraphHandler{refresher: refresher, logger: logger}
}

// Handle refreshes the graph. Being overtaken by a newer refresh is not a failure.
func (h *RefreshGraphHandler) Handle(ctx context.Context, cmd commands.RefreshGraphCommand) error {
	snap, err := h.refresher.Refresh(ctx)
	if err != nil {
		if apperrors.IsStaleRefresh(err) {
			return nil
		}
		return err
	}

	h.logger.Info("Graph refreshed on request",
		zap.String("reason", cmd.Reason),
		zap.Uint64("generation", snap.Version.Generation),
	)
	return nil
}
