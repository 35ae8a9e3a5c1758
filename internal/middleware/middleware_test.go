package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyAuth(t *testing.T) {
	e := echo.New()
	e.GET("/open", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, APIKeyAuth(""))
	e.GET("/closed", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, APIKeyAuth("secret"))

	tests := []struct {
		name string
		path string
		key  string
		want int
	}{
		{"no key configured", "/open", "", http.StatusNoContent},
		{"missing header", "/closed", "", http.StatusUnauthorized},
		{"wrong key", "/closed", "guess", http.StatusUnauthorized},
		{"prefix of key", "/closed", "secre", http.StatusUnauthorized},
		{"valid key", "/closed", "secret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIdentity(t *testing.T) {
	e := echo.New()
	e.Use(Identity())
	e.GET("/who", func(c echo.Context) error {
		return c.String(http.StatusOK, UserIDOr(c, "anonymous"))
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(UserIDHeader, "  manager@example.com ")
	assert.Equal(t, "manager@example.com", serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	assert.Equal(t, "anonymous", serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(UserIDHeader, "   ")
	assert.Equal(t, "anonymous", serve(e, req).Body.String())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Identity())
	e.Use(RequestLogger(logger))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })

	req := httptest.NewRequest(http.MethodGet, "/ok?x=1", nil)
	req.Header.Set(UserIDHeader, "lead@example.com")
	serve(e, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ok?x=1", line["uri"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.Equal(t, "lead@example.com", line["user_id"])
	assert.Equal(t, "http", line["component"])

	buf.Reset()
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "error", line["level"])
}
