package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// ErrorHandler turns errors into JSON responses and logs them by severity
type ErrorHandler struct {
	logger        *zap.Logger
	debug         bool
	defaultStatus int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
	}
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status, response := h.Resolve(err)
	response.RequestID = requestID(r)
	response.TraceID = r.Header.Get("X-Trace-ID")

	h.logError(r, err, status, response)

	if h.debug {
		if appErr := GetAppError(err); appErr != nil && appErr.StackTrace != "" {
			if response.Details == nil {
				response.Details = make(map[string]interface{})
			}
			response.Details["stack_trace"] = appErr.StackTrace
		}
		if response.Type == string(ErrorTypeInternal) && GetAppError(err) == nil {
			response.Message = err.Error()
		}
	}

	h.sendJSON(w, status, response)
}

// Resolve maps err onto a status code and response body without writing anything
func (h *ErrorHandler) Resolve(err error) (int, ErrorResponse) {
	var validationErrs *ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]interface{}, len(validationErrs.Errors))
		for k, v := range validationErrs.ToMap() {
			fields[k] = v
		}
		return http.StatusBadRequest, ErrorResponse{
			Error:   true,
			Type:    string(ErrorTypeValidation),
			Message: validationErrs.Error(),
			Code:    "VALIDATION_FAILED",
			Details: fields,
		}
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		status := domainErr.StatusCode
		if status == 0 {
			status = h.defaultStatus
		}
		return status, ErrorResponse{
			Error:     true,
			Type:      string(domainErr.Type),
			Message:   domainErr.Message,
			Code:      domainErr.Code,
			Details:   domainErr.Details,
			Retryable: domainErr.Retryable,
		}
	}

	if appErr := GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = h.defaultStatus
		}
		return status, ErrorResponse{
			Error:   true,
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		}
	}

	return h.defaultStatus, ErrorResponse{
		Error:   true,
		Type:    string(ErrorTypeInternal),
		Message: "An internal error occurred",
	}
}

// HandleStatus sends an error response with a specific status code
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	response := ErrorResponse{
		Error:     true,
		Type:      statusToErrorType(status),
		Message:   message,
		RequestID: requestID(r),
		TraceID:   r.Header.Get("X-Trace-ID"),
	}

	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message),
	)

	h.sendJSON(w, status, response)
}

func (h *ErrorHandler) logError(r *http.Request, err error, status int, resp ErrorResponse) {
	fields := []zap.Field{
		zap.String("error_type", resp.Type),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", resp.RequestID),
		zap.Error(err),
	}
	if resp.Code != "" {
		fields = append(fields, zap.String("error_code", resp.Code))
	}

	switch {
	case status >= 500:
		h.logger.Error(resp.Message, fields...)
	case status >= 400:
		h.logger.Warn(resp.Message, fields...)
	default:
		h.logger.Info(resp.Message, fields...)
	}
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

func requestID(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(ErrorTypeValidation)
	case http.StatusUnauthorized:
		return string(ErrorTypeUnauthorized)
	case http.StatusForbidden:
		return string(ErrorTypeForbidden)
	case http.StatusNotFound:
		return string(ErrorTypeNotFound)
	case http.StatusConflict:
		return string(ErrorTypeConflict)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return string(ErrorTypeTimeout)
	case http.StatusTooManyRequests:
		return string(ErrorTypeRateLimit)
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusBadGateway:
		return string(ErrorTypeExternal)
	default:
		return string(ErrorTypeInternal)
	}
}

// Middleware recovers panics and reports them as internal errors
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
