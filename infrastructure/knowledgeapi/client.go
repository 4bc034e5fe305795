// Package knowledgeapi talks to the external knowledge store over HTTP.
package knowledgeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/domain/services"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

const (
	serviceName     = "knowledge store"
	maxResponseSize = 32 << 20
	legacyPrefix    = "/api"
)

var (
	_ ports.KnowledgeStore = (*Client)(nil)
	_ ports.AIQuerier      = (*Client)(nil)
)

// BreakerConfig tunes the circuit breaker in front of the store
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used in production
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Config holds the client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
	// MaxResponseSize caps a response body; larger bodies are rejected
	MaxResponseSize int64
}

// Client is the knowledge store client. Transport failures and 5xx answers count
// against the breaker; 4xx answers are the caller's problem and do not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBody    int64
	breaker    *gobreaker.CircuitBreaker
	tracer     ports.Tracer
	logger     *zap.Logger
}

// NewClient creates a store client. tracer is optional.
func NewClient(cfg Config, tracer ports.Tracer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = maxResponseSize
	}
	if cfg.Breaker == (BreakerConfig{}) {
		cfg.Breaker = DefaultBreakerConfig()
	}
	bc := cfg.Breaker

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// cancelled callers say nothing about the store's health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxBody:    cfg.MaxResponseSize,
		breaker:    breaker,
		tracer:     tracer,
		logger:     logger,
	}
}

// --- Wire types ---

type filesResponse struct {
	Files []json.RawMessage `json:"files"`
}

type aiQueryRequest struct {
	Query string `json:"query"`
}

type aiQueryResponse struct {
	Response string `json:"response"`
}

type errorBody struct {
	Detail interface{} `json:"detail"`
}

// statusError marks a 5xx answer so the breaker counts it
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("knowledge store answered %d", e.status)
}

type response struct {
	status int
	header http.Header
	body   []byte
}

type request struct {
	method      string
	paths       []string
	body        []byte
	contentType string
}

// ListItems fetches the raw listing, falling back to the /api prefix on 404
func (c *Client) ListItems(ctx context.Context) ([]services.RawItem, error) {
	var items []services.RawItem
	err := c.trace(ctx, "knowledge.list", func(ctx context.Context) error {
		resp, err := c.do(ctx, request{
			method: http.MethodGet,
			paths:  withFallback("/knowledge/files"),
		})
		if err != nil {
			return err
		}

		var decoded filesResponse
		if err := json.Unmarshal(resp.body, &decoded); err != nil {
			return apperrors.NewExternalError(serviceName, fmt.Errorf("failed to decode listing: %w", err))
		}
		items = make([]services.RawItem, len(decoded.Files))
		for i, record := range decoded.Files {
			// a record that is not an object degrades to an empty item
			if err := json.Unmarshal(record, &items[i]); err != nil {
				c.logger.Warn("Undecodable listing record, using defaults",
					zap.Int("position", i),
					zap.Error(err),
				)
				items[i] = services.RawItem{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []services.RawItem{}
	}
	c.logger.Debug("Fetched knowledge listing", zap.Int("items", len(items)))
	return items, nil
}

// Upload sends a file as multipart form data under the field "file"
func (c *Client) Upload(ctx context.Context, filename string, content []byte) (*ports.StoreReply, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build upload form").WithCause(err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, apperrors.NewInternalError("failed to build upload form").WithCause(err)
	}
	if err := mw.Close(); err != nil {
		return nil, apperrors.NewInternalError("failed to build upload form").WithCause(err)
	}

	return c.mutate(ctx, "knowledge.upload", request{
		method:      http.MethodPost,
		paths:       []string{"/knowledge/upload"},
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, filename)
}

// Delete removes a stored file
func (c *Client) Delete(ctx context.Context, filename string) (*ports.StoreReply, error) {
	return c.mutate(ctx, "knowledge.delete", request{
		method: http.MethodDelete,
		paths:  []string{"/knowledge/files/" + url.PathEscape(filename)},
	}, filename)
}

// Rebuild asks the store to rebuild its index
func (c *Client) Rebuild(ctx context.Context) (*ports.StoreReply, error) {
	return c.mutate(ctx, "knowledge.rebuild", request{
		method: http.MethodPost,
		paths:  []string{"/knowledge/rebuild"},
	}, "")
}

// Template fetches the starter knowledge file
func (c *Client) Template(ctx context.Context) (*ports.KnowledgeFile, error) {
	return c.file(ctx, "knowledge.template", "/knowledge/template", "template.yaml")
}

// Download fetches a stored knowledge file
func (c *Client) Download(ctx context.Context, filename string) (*ports.KnowledgeFile, error) {
	return c.file(ctx, "knowledge.download", "/knowledge/download/"+url.PathEscape(filename), filename)
}

// Query forwards a question to the store's assistant
func (c *Client) Query(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(aiQueryRequest{Query: query})
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode query").WithCause(err)
	}

	var answer string
	err = c.trace(ctx, "ai.query", func(ctx context.Context) error {
		resp, err := c.do(ctx, request{
			method:      http.MethodPost,
			paths:       withFallback("/ai/query"),
			body:        payload,
			contentType: "application/json",
		})
		if err != nil {
			return err
		}

		var decoded aiQueryResponse
		if err := json.Unmarshal(resp.body, &decoded); err != nil {
			return apperrors.NewExternalError(serviceName, fmt.Errorf("failed to decode ai response: %w", err))
		}
		answer = decoded.Response
		return nil
	})
	return answer, err
}

func (c *Client) mutate(ctx context.Context, op string, req request, filename string) (*ports.StoreReply, error) {
	var reply *ports.StoreReply
	err := c.trace(ctx, op, func(ctx context.Context) error {
		resp, err := c.do(ctx, req)
		if err != nil {
			return err
		}
		reply = decodeReply(resp.body)
		if reply.Filename == "" {
			reply.Filename = filename
		}
		return nil
	})
	return reply, err
}

func (c *Client) file(ctx context.Context, op, path, fallbackName string) (*ports.KnowledgeFile, error) {
	var f *ports.KnowledgeFile
	err := c.trace(ctx, op, func(ctx context.Context) error {
		resp, err := c.do(ctx, request{method: http.MethodGet, paths: []string{path}})
		if err != nil {
			return err
		}
		f = &ports.KnowledgeFile{
			Filename:    attachmentName(resp.header.Get("Content-Disposition"), fallbackName),
			ContentType: resp.header.Get("Content-Type"),
			Content:     resp.body,
		}
		if f.ContentType == "" {
			f.ContentType = "application/x-yaml"
		}
		return nil
	})
	return f, err
}

// do runs the request through the breaker, trying each path in turn while the
// store answers 404
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	var (
		resp *response
		err  error
	)
	for i, path := range req.paths {
		resp, err = c.attempt(ctx, req, path)
		if err != nil {
			return nil, err
		}
		if resp.status == http.StatusNotFound && i < len(req.paths)-1 {
			c.logger.Debug("Knowledge store path not found, trying fallback",
				zap.String("path", path),
				zap.String("fallback", req.paths[i+1]),
			)
			continue
		}
		break
	}

	if resp.status < 200 || resp.status >= 300 {
		return nil, apperrors.NewUpstreamError(serviceName, resp.status, errorDetail(resp.body))
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, req request, path string) (*response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body io.Reader
		if req.body != nil {
			body = bytes.NewReader(req.body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if req.contentType != "" {
			httpReq.Header.Set("Content-Type", req.contentType)
		}
		httpReq.Header.Set("Accept", "application/json")

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBody+1))
		if err != nil {
			return nil, err
		}

		resp := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
		if httpResp.StatusCode >= 500 {
			return resp, &statusError{status: httpResp.StatusCode, body: data}
		}
		return resp, nil
	})

	if err == nil {
		resp := result.(*response)
		if int64(len(resp.body)) > c.maxBody {
			c.logger.Warn("Knowledge store response too large",
				zap.String("path", path),
				zap.Int64("limit", c.maxBody),
			)
			return nil, apperrors.NewExternalError(serviceName, fmt.Errorf("response too large: exceeds %d bytes", c.maxBody))
		}
		return resp, nil
	}

	var (
		se *statusError
		ne net.Error
	)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("Knowledge store breaker rejected request", zap.String("path", path), zap.Error(err))
		return nil, apperrors.NewUnavailableError(serviceName).WithCause(err)
	case errors.As(err, &se):
		return nil, apperrors.NewUpstreamError(serviceName, se.status, errorDetail(se.body))
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		c.logger.Warn("Knowledge store request timed out", zap.String("path", path), zap.Error(err))
		return nil, apperrors.NewTimeoutError(serviceName + " " + req.method + " " + path).WithCause(err)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		c.logger.Warn("Knowledge store request failed", zap.String("path", path), zap.Error(err))
		return nil, apperrors.NewNetworkError("knowledge store unreachable", err)
	}
}

func (c *Client) trace(ctx context.Context, name string, fn func(context.Context) error) error {
	if c.tracer == nil {
		return fn(ctx)
	}
	return c.tracer.TraceFunction(ctx, name, fn)
}

func withFallback(path string) []string {
	return []string{path, legacyPrefix + path}
}

func decodeReply(body []byte) *ports.StoreReply {
	reply := &ports.StoreReply{}
	if len(body) == 0 {
		return reply
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		reply.Message = strings.TrimSpace(string(body))
		return reply
	}
	for k, v := range fields {
		s, isString := v.(string)
		switch {
		case k == "message" && isString:
			reply.Message = s
		case k == "filename" && isString:
			reply.Filename = s
		case k == "status" && isString:
			reply.Status = s
		default:
			if reply.Extra == nil {
				reply.Extra = make(map[string]interface{})
			}
			reply.Extra[k] = v
		}
	}
	return reply
}

// errorDetail extracts the store's {"detail": ...} message when there is one
func errorDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != nil {
		if s, ok := eb.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(eb.Detail); err == nil {
			return string(b)
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func attachmentName(disposition, fallback string) string {
	if disposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return fallback
	}
	return params["filename"]
}
