package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/foxdns/foxdns/internal/api/handlers"
	"github.com/foxdns/foxdns/internal/api/models"
	"github.com/foxdns/foxdns/internal/hosttable"
	"github.com/foxdns/foxdns/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHosts_Empty(t *testing.T) {
	h := handlers.New(nil, nil, nil)
	r := setupTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/hosts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []models.HostRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp)
}

func TestHosts_ListsLoadedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.txt")
	require.NoError(t, os.WriteFile(path, []byte("1.2.3.4 example.com\n0.0.0.0 ads.example.com\n"), 0o644))

	table, err := hosttable.Load(path)
	require.NoError(t, err)

	d := &relay.Dispatcher{Hosts: table}
	h := handlers.New(nil, d, nil)
	r := setupTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/hosts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []models.HostRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
}
