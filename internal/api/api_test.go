// Package api_test provides behavior tests for the API package.
package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxdns/foxdns/internal/api"
	"github.com/foxdns/foxdns/internal/api/models"
	"github.com/foxdns/foxdns/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 8080
	return cfg
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNew_CreatesServer(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)
	assert.NotNil(t, server)
}

func TestNew_PanicsOnNilConfig(t *testing.T) {
	assert.Panics(t, func() {
		api.New(nil, nil, nil, nil)
	})
}

func TestServer_Addr(t *testing.T) {
	cfg := testConfig()
	cfg.API.Host = "0.0.0.0"
	cfg.API.Port = 9090

	server := api.New(cfg, nil, nil, nil)
	assert.Equal(t, "0.0.0.0:9090", server.Addr())
}

func TestServer_Engine(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)
	assert.NotNil(t, server.Engine())
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)

	w := performRequest(server.Engine(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRoutes_StatsEndpoint(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)

	w := performRequest(server.Engine(), http.MethodGet, "/stats")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ServerStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Uptime)
}

func TestRoutes_HostsEndpoint(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)

	w := performRequest(server.Engine(), http.MethodGet, "/hosts")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_SwaggerEndpoint(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)

	w := performRequest(server.Engine(), http.MethodGet, "/swagger/index.html")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_StaticStatusPage(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)

	w := performRequest(server.Engine(), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "foxdns")
}

func TestRoutes_NotFound(t *testing.T) {
	server := api.New(testConfig(), nil, nil, nil)

	w := performRequest(server.Engine(), http.MethodGet, "/nonexistent")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Shutdown(t *testing.T) {
	cfg := testConfig()
	cfg.API.Port = 0
	server := api.New(cfg, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, server.Shutdown(ctx))
}
