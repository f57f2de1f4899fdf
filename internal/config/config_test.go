package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "INFO", cfg.Logging.Level)
	require.False(t, cfg.API.Enabled)
	require.Equal(t, 8080, cfg.API.Port)
	require.Equal(t, 20.0, cfg.RateLimit.IPQPS)
	require.Equal(t, 100.0, cfg.RateLimit.PrefixQPS)
	require.Equal(t, 200.0, cfg.RateLimit.PrefixBurst)
	require.Equal(t, 4096, cfg.RateLimit.MaxTrackedPrefixes)
	require.Equal(t, "foxdns.db", cfg.Store.Path)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foxdns.yaml")
	contents := `
api:
  enabled: true
  port: 9090
rate_limit:
  ip_qps: 5
  prefix_qps: 50
filtering:
  blocklist_path: /etc/foxdns/blocklist.txt
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.True(t, cfg.API.Enabled)
	require.Equal(t, 9090, cfg.API.Port)
	require.Equal(t, 5.0, cfg.RateLimit.IPQPS)
	require.Equal(t, 50.0, cfg.RateLimit.PrefixQPS)
	require.Equal(t, "/etc/foxdns/blocklist.txt", cfg.Filtering.BlocklistPath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foxdns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 9090\n"), 0o644))

	t.Setenv("FOXDNS_API_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.API.Port)
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
