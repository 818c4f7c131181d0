package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beercompass.app/internal/logging"
)

func TestRequestLoggingMiddleware(t *testing.T) {
	t.Run("logs request details", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/api/compass/dataset.json", nil)
		req.Header.Set("User-Agent", "compass-client/1.0")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

		assert.Equal(t, "INFO", logEntry["level"])
		assert.Equal(t, "http_request", logEntry["msg"])
		assert.Equal(t, "GET", logEntry["method"])
		assert.Equal(t, "/api/compass/dataset.json", logEntry["path"])
		assert.Equal(t, float64(http.StatusOK), logEntry["status"])
		assert.Equal(t, "compass-client/1.0", logEntry["user_agent"])
		assert.Equal(t, "http_server", logEntry["component"])
		assert.GreaterOrEqual(t, logEntry["duration_ms"], float64(0))
	})

	t.Run("logs different status codes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		req := httptest.NewRequest("GET", "/missing", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.Equal(t, float64(http.StatusNotFound), logEntry["status"])
	})

	t.Run("measures request duration", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(10 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/slow", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.GreaterOrEqual(t, logEntry["duration_ms"], float64(10))
	})

	t.Run("handles missing user agent", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.Equal(t, "", logEntry["user_agent"])
	})

	t.Run("strips query parameters from logged path", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		// The API key travels in the query string; it must never be logged
		req := httptest.NewRequest("GET", "/api/compass/nearest.json?key=supersecret&lat=1&lon=2", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.Equal(t, "/api/compass/nearest.json", logEntry["path"])
		assert.NotContains(t, buf.String(), "supersecret")
	})
}

func TestRequestLoggingWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

	var contextLogger *slog.Logger
	handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contextLogger = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, req)

	assert.Same(t, logger, contextLogger, "handlers should see the middleware's logger in the request context")
}

func TestRequestLoggingIntegration(t *testing.T) {
	api := createTestApi(t)

	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

	router := httprouter.New()
	api.SetRoutes(router)
	handler := NewRequestLoggingMiddleware(logger)(router)

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/compass/dataset.json?key=TEST")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck
	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), `"msg":"http_request"`)
	assert.Contains(t, buf.String(), `"path":"/api/compass/dataset.json"`)
	assert.NotContains(t, buf.String(), "key=TEST")
}

func TestResponseWriterHijack(t *testing.T) {
	t.Run("reports unhijackable writers", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		_, _, err := rw.Hijack()
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "does not support hijacking"))
	})

	t.Run("unwraps to the underlying writer", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}

		assert.Same(t, recorder, rw.Unwrap())
	})
}
