package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/commands"
	"github.com/engmung/portfolio-Nat/application/commands/bus"
	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/application/queries"
	querybus "github.com/engmung/portfolio-Nat/application/queries/bus"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	"github.com/engmung/portfolio-Nat/interfaces/http/rest/middleware"
	"github.com/engmung/portfolio-Nat/pkg/common"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

// multipart framing on top of the file itself
const multipartOverhead = 64 * 1024

// KnowledgeHandler proxies knowledge store operations
type KnowledgeHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	validator  *validators.KnowledgeFileValidator
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *validators.KnowledgeFileValidator,
	errs *apperrors.ErrorHandler,
	logger *zap.Logger,
) *KnowledgeHandler {
	return &KnowledgeHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		validator:  validator,
		errors:     errs,
		logger:     logger,
	}
}

// ListFiles handles GET /knowledge/files
func (h *KnowledgeHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	result, err := querybus.Ask[*queries.ListKnowledgeFilesResult](r.Context(), h.queryBus, queries.ListKnowledgeFilesQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Upload handles POST /knowledge/upload with a multipart "file" field
func (h *KnowledgeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.validator.MaxUploadBytes()+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errors.Handle(w, r, apperrors.ErrFileTooLarge.With("max_bytes", h.validator.MaxUploadBytes()))
			return
		}
		h.errors.Handle(w, r, apperrors.NewValidationError("multipart field \"file\" is required").WithCause(err))
		return
	}
	defer file.Close()

	if err := h.validator.ValidateUpload(header.Filename, header.Size); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("failed to read uploaded file").WithCause(err))
		return
	}

	cmd := commands.UploadKnowledgeCommand{
		Filename: header.Filename,
		Content:  content,
		UserID:   middleware.UserID(r),
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.audit(r, "upload", header.Filename)
	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "uploaded",
		"filename": header.Filename,
		"size":     len(content),
	})
}

// Delete handles DELETE /knowledge/files/{filename}
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	cmd := commands.DeleteKnowledgeCommand{Filename: filename, UserID: middleware.UserID(r)}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.audit(r, "delete", filename)
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "filename": filename})
}

// Rebuild handles POST /knowledge/rebuild
func (h *KnowledgeHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.RebuildKnowledgeCommand{UserID: middleware.UserID(r)}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.audit(r, "rebuild", "")
	common.RespondJSON(w, http.StatusAccepted, map[string]string{"message": "rebuild completed"})
}

// audit logs a completed store mutation with its caller
func (h *KnowledgeHandler) audit(r *http.Request, action, filename string) {
	caller, _ := common.CallerFrom(r.Context())
	h.logger.Info("Knowledge store mutated",
		zap.String("action", action),
		zap.String("filename", filename),
		zap.String("userID", caller.UserID),
		zap.Bool("anonymous", caller.Anonymous),
		zap.Duration("elapsed", common.Elapsed(r.Context())),
	)
}

// Template handles GET /knowledge/template
func (h *KnowledgeHandler) Template(w http.ResponseWriter, r *http.Request) {
	file, err := querybus.Ask[*ports.KnowledgeFile](r.Context(), h.queryBus, queries.GetTemplateQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondAttachment(w, file.Filename, file.ContentType, file.Content)
}

// Download handles GET /knowledge/download/{filename}
func (h *KnowledgeHandler) Download(w http.ResponseWriter, r *http.Request) {
	query := queries.DownloadKnowledgeFileQuery{Filename: chi.URLParam(r, "filename")}
	file, err := querybus.Ask[*ports.KnowledgeFile](r.Context(), h.queryBus, query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondAttachment(w, file.Filename, file.ContentType, file.Content)
}
