package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	echo := func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) }

	t.Run("generates new request ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/countries", echo)

		w := serve(router, http.MethodGet, "/countries", nil)

		headerID := w.Header().Get(RequestIDHeader)
		require.NotEmpty(t, headerID)
		assert.Equal(t, headerID, w.Body.String())
	})

	t.Run("propagates upstream request ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/countries", echo)

		w := serve(router, http.MethodGet, "/countries", map[string]string{RequestIDHeader: " lb-7f3a "})

		assert.Equal(t, "lb-7f3a", w.Body.String())
	})

	t.Run("replaces oversized request ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/countries", echo)

		huge := strings.Repeat("x", maxRequestIDLength+1)
		w := serve(router, http.MethodGet, "/countries", map[string]string{RequestIDHeader: huge})

		assert.NotEqual(t, huge, w.Body.String())
		assert.Len(t, w.Body.String(), 36)
	})

	t.Run("empty when not set", func(t *testing.T) {
		assert.Empty(t, GetRequestID(&gin.Context{}))
	})
}

func TestCORS(t *testing.T) {
	allowed := []string{"http://localhost:3000"}
	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(CORS(allowed))
		router.GET("/zones", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
		return router
	}

	t.Run("allowed origin", func(t *testing.T) {
		w := serve(newRouter(), http.MethodGet, "/zones", map[string]string{"Origin": "http://localhost:3000"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("disallowed origin", func(t *testing.T) {
		w := serve(newRouter(), http.MethodGet, "/zones", map[string]string{"Origin": "http://evil.com"})

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		w := serve(newRouter(), http.MethodOptions, "/zones", map[string]string{
			"Origin":                        "http://localhost:3000",
			"Access-Control-Request-Method": http.MethodPatch,
		})

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestLogger(t *testing.T) {
	t.Run("stores request logger and logs route template", func(t *testing.T) {
		var buf bytes.Buffer
		router := gin.New()
		router.Use(RequestID(), Logger(logger.NewWithWriter(&buf, "production")))
		router.GET("/zones/:id", func(c *gin.Context) {
			assert.NotNil(t, GetLogger(c))
			c.String(http.StatusOK, "OK")
		})

		serve(router, http.MethodGet, "/zones/42?q=x", map[string]string{RequestIDHeader: "req-1"})

		out := buf.String()
		assert.Contains(t, out, `"route":"/zones/:id"`)
		assert.Contains(t, out, `"request_id":"req-1"`)
		assert.Contains(t, out, `"query":"q=x"`)
	})

	t.Run("client errors log at warn", func(t *testing.T) {
		var buf bytes.Buffer
		router := gin.New()
		router.Use(Logger(logger.NewWithWriter(&buf, "production")))

		serve(router, http.MethodGet, "/missing", nil)

		assert.Contains(t, buf.String(), `"level":"warn"`)
		assert.Contains(t, buf.String(), `"route":"unmatched"`)
	})

	t.Run("health checks log at debug", func(t *testing.T) {
		var buf bytes.Buffer
		router := gin.New()
		router.Use(Logger(logger.NewWithWriter(&buf, "production")))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		serve(router, http.MethodGet, "/health", nil)

		assert.Empty(t, buf.String())
	})

	t.Run("nil when not set", func(t *testing.T) {
		assert.Nil(t, GetLogger(&gin.Context{}))
	})
}

func TestRecovery(t *testing.T) {
	t.Run("recovers from panic and returns 500", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID(), Recovery(logger.Nop()))
		router.GET("/panic", func(c *gin.Context) { panic("test panic") })

		w := serve(router, http.MethodGet, "/panic", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
		assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))
	})

	t.Run("does not interfere with normal requests", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery(logger.Nop()))
		router.GET("/normal", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

		w := serve(router, http.MethodGet, "/normal", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := gin.New()
	router.Use(Metrics(metrics.NewHTTPMetrics(registry)))
	router.GET("/zones/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/zones/1", nil)
	serve(router, http.MethodGet, "/zones/2", nil)
	serve(router, http.MethodGet, "/nope", nil)

	expected := `
# HELP laundry_http_requests_total HTTP requests by method, route template and status code.
# TYPE laundry_http_requests_total counter
laundry_http_requests_total{method="GET",route="/zones/:id",status="200"} 2
laundry_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "laundry_http_requests_total")
	assert.NoError(t, err)
}

func TestMiddlewareStack(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), Logger(logger.Nop()), Recovery(logger.Nop()), CORS([]string{"http://localhost:3000"}))
	router.GET("/countries", func(c *gin.Context) {
		assert.NotEmpty(t, GetRequestID(c))
		assert.NotNil(t, GetLogger(c))
		c.String(http.StatusOK, "OK")
	})

	w := serve(router, http.MethodGet, "/countries", map[string]string{"Origin": "http://localhost:3000"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
