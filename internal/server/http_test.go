package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/livequiz/internal/config"
)

func testConfig() *config.App {
	return &config.App{
		Name:     "livequiz",
		Version:  "1.2.3",
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins:   []string{"https://quiz.example.com"},
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           600,
		},
	}
}

func serve(t *testing.T, srv *http.Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), nil, nil)

	rec := serve(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Timestamp)
	assert.GreaterOrEqual(t, body.UptimeSeconds, int64(0))

	rec = serve(t, srv, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInfo(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), nil, nil)

	rec := serve(t, srv, httptest.NewRequest(http.MethodGet, "/v1/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body infoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "livequiz", body.Name)
	assert.Equal(t, "1.2.3", body.Version)
}

func TestWSRouteWithoutHandler(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), nil, nil)

	rec := serve(t, srv, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/info", nil)
	req.Header.Set("Origin", "https://quiz.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := serve(t, srv, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://quiz.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = serve(t, srv, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/info", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = serve(t, srv, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestUpgraderChecksOrigin(t *testing.T) {
	up := NewUpgrader(testConfig().CORS)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, up.CheckOrigin(req), "missing origin is allowed")

	req.Header.Set("Origin", "https://quiz.example.com")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, up.CheckOrigin(req))

	wildcard := NewUpgrader(config.CORS{AllowedOrigins: []string{"*"}})
	assert.True(t, wildcard.CheckOrigin(req))
}
