package handlers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands"
	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/application/sagas"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	"github.com/engmung/portfolio-Nat/domain/events"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

const (
	rebuildLockResource = "knowledge_rebuild"
	rebuildLockTTL      = 2 * time.Minute
	rebuildAttempts     = 3
	rebuildRetryDelay   = 500 * time.Millisecond
)

// KnowledgeCommandHandlers forwards mutations to the knowledge store and refreshes
// the graph once the store has accepted them
type KnowledgeCommandHandlers struct {
	store      ports.KnowledgeStore
	refresher  Refresher
	validator  *validators.KnowledgeFileValidator
	locker     ports.Locker
	publisher  ports.EventPublisher
	notifier   ports.ChangeNotifier
	instanceID string
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewKnowledgeCommandHandlers creates the mutation handlers. locker, publisher and
// notifier are optional.
func NewKnowledgeCommandHandlers(
	store ports.KnowledgeStore,
	refresher Refresher,
	validator *validators.KnowledgeFileValidator,
	locker ports.Locker,
	publisher ports.EventPublisher,
	notifier ports.ChangeNotifier,
	instanceID string,
	logger *zap.Logger,
) *KnowledgeCommandHandlers {
	return &KnowledgeCommandHandlers{
		store:      store,
		refresher:  refresher,
		validator:  validator,
		locker:     locker,
		publisher:  publisher,
		notifier:   notifier,
		instanceID: instanceID,
		retryDelay: rebuildRetryDelay,
		logger:     logger,
	}
}

// Upload stores a knowledge file
func (h *KnowledgeCommandHandlers) Upload(ctx context.Context, cmd commands.UploadKnowledgeCommand) error {
	if err := h.validator.ValidateUpload(cmd.Filename, int64(len(cmd.Content))); err != nil {
		return err
	}

	saga := sagas.NewSagaBuilder("upload_knowledge", h.logger).
		WithMetadata("filename", cmd.Filename).
		WithStep("store_upload", func(ctx context.Context, _ interface{}) (interface{}, error) {
			return h.store.Upload(ctx, cmd.Filename, cmd.Content)
		}).
		WithStep("refresh_graph", h.refreshStep).
		Build()

	if err := h.execute(ctx, saga); err != nil {
		return err
	}

	h.announce(ctx, events.ChangeUploaded, cmd.Filename)
	return nil
}

// Delete removes a knowledge file
func (h *KnowledgeCommandHandlers) Delete(ctx context.Context, cmd commands.DeleteKnowledgeCommand) error {
	if err := h.validator.ValidateFileName(cmd.Filename); err != nil {
		return err
	}

	saga := sagas.NewSagaBuilder("delete_knowledge", h.logger).
		WithMetadata("filename", cmd.Filename).
		WithStep("store_delete", func(ctx context.Context, _ interface{}) (interface{}, error) {
			reply, err := h.store.Delete(ctx, cmd.Filename)
			if apperrors.IsNotFound(err) {
				return nil, apperrors.ErrKnowledgeFileNotFound.With("filename", cmd.Filename).Because(err)
			}
			return reply, err
		}).
		WithStep("refresh_graph", h.refreshStep).
		Build()

	if err := h.execute(ctx, saga); err != nil {
		return err
	}

	h.announce(ctx, events.ChangeDeleted, cmd.Filename)
	return nil
}

// Rebuild re-indexes the store. Only one instance may rebuild at a time.
func (h *KnowledgeCommandHandlers) Rebuild(ctx context.Context, cmd commands.RebuildKnowledgeCommand) error {
	builder := sagas.NewSagaBuilder("rebuild_knowledge", h.logger)

	if h.locker != nil {
		builder = builder.WithCompensableStep("acquire_lock",
			func(ctx context.Context, _ interface{}) (interface{}, error) {
				lock, err := h.locker.Acquire(ctx, rebuildLockResource, h.instanceID, rebuildLockTTL)
				if errors.Is(err, ports.ErrLockHeld) {
					return nil, apperrors.ErrRebuildInProgress.Because(err)
				}
				return lock, err
			},
			func(ctx context.Context, data interface{}) error {
				return data.(ports.Lock).Release(ctx)
			})
	}

	var lock ports.Lock
	saga := builder.
		WithRetryableStep("store_rebuild", func(ctx context.Context, data interface{}) (interface{}, error) {
			if l, ok := data.(ports.Lock); ok {
				lock = l
			}
			return h.store.Rebuild(ctx)
		}, rebuildAttempts, h.retryDelay, transientStoreError).
		WithStep("refresh_graph", h.refreshStep).
		Build()

	err := h.execute(ctx, saga)
	if lock != nil && err == nil {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			h.logger.Warn("Failed to release rebuild lock", zap.Error(releaseErr))
		}
	}
	if err != nil {
		return err
	}

	h.announce(ctx, events.ChangeRebuilt, "")
	return nil
}

// execute runs saga and records where a failed mutation stopped
func (h *KnowledgeCommandHandlers) execute(ctx context.Context, saga *sagas.Saga) error {
	if _, err := saga.Execute(ctx, nil); err != nil {
		h.logger.Warn("Knowledge mutation failed",
			zap.String("saga_id", saga.GetID()),
			zap.String("state", string(saga.GetState())),
			zap.Int("step", saga.GetCurrentStep()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// transientStoreError reports store failures that may clear on their own. An open
// breaker will not close within the retry window, so unavailability is final.
func transientStoreError(err error) bool {
	return apperrors.IsType(err, apperrors.ErrorTypeNetwork) ||
		apperrors.IsType(err, apperrors.ErrorTypeTimeout) ||
		apperrors.IsType(err, apperrors.ErrorTypeExternal)
}

// refreshStep refreshes after a mutation. The store already accepted the change, so a
// failed refresh only logs and leaves the last-good graph in place.
func (h *KnowledgeCommandHandlers) refreshStep(ctx context.Context, data interface{}) (interface{}, error) {
	if _, err := h.refresher.Refresh(ctx); err != nil && !apperrors.IsStaleRefresh(err) {
		h.logger.Warn("Refresh after mutation failed", zap.Error(err))
	}
	return data, nil
}

// announce publishes the change to the event bus and to peer instances
func (h *KnowledgeCommandHandlers) announce(ctx context.Context, kind events.ChangeKind, filename string) {
	change := events.NewKnowledgeChanged(kind, filename, h.instanceID, time.Now().UTC())

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, change); err != nil {
			h.logger.Warn("Failed to publish knowledge change", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	if h.notifier != nil {
		if err := h.notifier.NotifyChange(ctx, change); err != nil {
			h.logger.Warn("Failed to notify peers of knowledge change", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
}
