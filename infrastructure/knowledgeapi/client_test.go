package knowledgeapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engmung/portfolio-Nat/domain/services"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, nil, nil)
}

func TestClient_ListItems(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCount int
		wantErr   apperrors.ErrorType
	}{
		{
			name: "primary path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/knowledge/files", r.URL.Path)
				_, _ = io.WriteString(w, `{"files":[{"id":"a","level":1,"tags":["x"]},{"filename":"b.yaml","tags":"oops"}]}`)
			},
			wantCount: 2,
		},
		{
			name: "falls back to api prefix on 404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/knowledge/files" {
					http.NotFound(w, r)
					return
				}
				require.Equal(t, "/api/knowledge/files", r.URL.Path)
				_, _ = io.WriteString(w, `{"files":[{"id":"a"}]}`)
			},
			wantCount: 1,
		},
		{
			name: "non-object record degrades instead of failing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"files":[{"id":"a","level":1},"not-an-object",{"id":"b","level":2}]}`)
			},
			wantCount: 3,
		},
		{
			name: "missing files key is an empty listing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{}`)
			},
			wantCount: 0,
		},
		{
			name: "both paths missing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantErr: apperrors.ErrorTypeNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"detail":"db down"}`)
			},
			wantErr: apperrors.ErrorTypeExternal,
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `<html>`)
			},
			wantErr: apperrors.ErrorTypeExternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := newTestClient(t, tt.handler)

			// Act
			items, err := c.ListItems(context.Background())

			// Assert
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Len(t, items, tt.wantCount)
		})
	}
}

func TestClient_ListItems_MalformedRecordsBecomeEmptyItems(t *testing.T) {
	// Arrange
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"files":[{"id":"a"},"not-an-object",42,null,{"id":"b"}]}`)
	}))

	// Act
	items, err := c.ListItems(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, services.RawItem{}, items[1])
	assert.Equal(t, services.RawItem{}, items[2])
	assert.Equal(t, services.RawItem{}, items[3])
	assert.Equal(t, "b", items[4].ID)
}

func TestClient_ResponseTooLarge(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "at the limit", body: "0123456789abcdef"},
		{name: "over the limit", body: "0123456789abcdefX", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)
			c := NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, MaxResponseSize: 16}, nil, nil)

			// Act
			file, err := c.Download(context.Background(), "big.yaml")

			// Assert
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal), "got %v", err)
				assert.Contains(t, err.Error(), "response too large")
				assert.Nil(t, file)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(file.Content))
		})
	}
}

func TestClient_Upload(t *testing.T) {
	// Arrange
	var gotName, gotBody string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/knowledge/upload", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotName, gotBody = hdr.Filename, string(data)
		_, _ = io.WriteString(w, `{"message":"File uploaded successfully","chunks":3}`)
	}))

	// Act
	reply, err := c.Upload(context.Background(), "react.yaml", []byte("id: react\n"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "react.yaml", gotName)
	assert.Equal(t, "id: react\n", gotBody)
	assert.Equal(t, "File uploaded successfully", reply.Message)
	assert.Equal(t, "react.yaml", reply.Filename)
	assert.Equal(t, float64(3), reply.Extra["chunks"])
}

func TestClient_UploadRejected(t *testing.T) {
	// Arrange
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Only YAML files are allowed"}`)
	}))

	// Act
	_, err := c.Upload(context.Background(), "a.yaml", []byte("x"))

	// Assert
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "Only YAML files are allowed", appErr.Details["upstream_detail"])
}

func TestClient_DeleteEscapesFilename(t *testing.T) {
	// Arrange
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{"message":"File deleted successfully"}`)
	}))

	// Act
	reply, err := c.Delete(context.Background(), "my notes.yaml")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/knowledge/files/my%20notes.yaml", gotPath)
	assert.Equal(t, "my notes.yaml", reply.Filename)
}

func TestClient_DeleteNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"File not found"}`)
	}))

	_, err := c.Delete(context.Background(), "ghost.yaml")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestClient_TemplateAndDownload(t *testing.T) {
	// Arrange
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/knowledge/template":
			w.Header().Set("Content-Disposition", `attachment; filename="starter.yaml"`)
			w.Header().Set("Content-Type", "text/yaml")
			_, _ = io.WriteString(w, "id: \nlevel: 1\n")
		case "/knowledge/download/react.yaml":
			// suppress content sniffing so the client default applies
			w.Header()["Content-Type"] = nil
			_, _ = io.WriteString(w, "id: react\n")
		default:
			http.NotFound(w, r)
		}
	}))

	// Act
	tpl, err := c.Template(context.Background())
	require.NoError(t, err)
	file, err := c.Download(context.Background(), "react.yaml")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "starter.yaml", tpl.Filename)
	assert.Equal(t, "text/yaml", tpl.ContentType)
	assert.Equal(t, "react.yaml", file.Filename)
	assert.Equal(t, "application/x-yaml", file.ContentType)
	assert.Equal(t, "id: react\n", string(file.Content))
}

func TestClient_QueryFallsBack(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/ai/query" {
			http.NotFound(w, r)
			return
		}
		var body aiQueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "what is blender?", body.Query)
		_ = json.NewEncoder(w).Encode(aiQueryResponse{Response: "A 3D suite"})
	}))

	// Act
	answer, err := c.Query(context.Background(), "what is blender?")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "A 3D suite", answer)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_BreakerOpensOnRepeatedFailures(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL: srv.URL,
		Breaker: BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2},
	}, nil, nil)

	// Act
	for i := 0; i < 2; i++ {
		_, err := c.Rebuild(context.Background())
		require.Error(t, err)
	}
	_, err := c.Rebuild(context.Background())

	// Assert
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable), "got %v", err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_TimeoutIsTyped(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, nil)

	// Act
	_, err := c.ListItems(context.Background())

	// Assert
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout), "got %v", err)
	assert.Equal(t, http.StatusGatewayTimeout, apperrors.GetAppError(err).HTTPStatus)
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL: srv.URL,
		Breaker: BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2},
	}, nil, nil)

	// Act
	for i := 0; i < 4; i++ {
		_, err := c.Rebuild(context.Background())

		// Assert
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestClient_Unreachable(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(Config{BaseURL: url, Timeout: time.Second}, nil, nil)

	// Act
	_, err := c.ListItems(context.Background())

	// Assert
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork), "got %v", err)
}
