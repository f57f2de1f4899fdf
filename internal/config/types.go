// Package config loads the relay's ambient configuration — the admin API,
// rate limiter, audit store, and blocklist settings that sit alongside the
// relay's own CLI contract (upstream IP, host file path, debug flags),
// which is parsed separately with the standard flag package in cmd/foxdns.
//
// Values are loaded from an optional YAML file with environment variable
// overrides, using Viper with this layering:
//
//	FOXDNS_API_PORT=8080        -> api.port
//	FOXDNS_RATE_LIMIT_IP_QPS=20 -> rate_limit.ip_qps
package config

// LoggingConfig mirrors internal/logging.Config for file/env configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"       mapstructure:"level"`
	Structured bool   `yaml:"structured"  mapstructure:"structured"`
	Format     string `yaml:"format"      mapstructure:"format"`
}

// APIConfig controls the optional read-only admin HTTP API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
}

// RateLimitConfig controls the relay's two-tier token bucket: an exact
// client-IP bucket plus a coarser bucket keyed by the client's /24 (IPv4)
// or /64 (IPv6) prefix, so a single host behind CGNAT or a subnet full of
// misbehaving clients can't starve other clients sharing its prefix.
type RateLimitConfig struct {
	Enabled            bool    `yaml:"enabled"              mapstructure:"enabled"`
	IPQPS              float64 `yaml:"ip_qps"               mapstructure:"ip_qps"`
	IPBurst            float64 `yaml:"ip_burst"             mapstructure:"ip_burst"`
	MaxTrackedIPs      int     `yaml:"max_tracked_ips"      mapstructure:"max_tracked_ips"`
	PrefixQPS          float64 `yaml:"prefix_qps"           mapstructure:"prefix_qps"`
	PrefixBurst        float64 `yaml:"prefix_burst"         mapstructure:"prefix_burst"`
	MaxTrackedPrefixes int     `yaml:"max_tracked_prefixes" mapstructure:"max_tracked_prefixes"`
	CleanupSeconds     float64 `yaml:"cleanup_seconds"      mapstructure:"cleanup_seconds"`
}

// StoreConfig controls the optional SQLite audit log.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path"    mapstructure:"path"`
}

// FilteringConfig controls the optional wildcard blocklist file.
type FilteringConfig struct {
	BlocklistPath string `yaml:"blocklist_path" mapstructure:"blocklist_path"`
}

// Config is the root ambient configuration structure.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"    mapstructure:"logging"`
	API       APIConfig       `yaml:"api"        mapstructure:"api"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Store     StoreConfig     `yaml:"store"      mapstructure:"store"`
	Filtering FilteringConfig `yaml:"filtering"  mapstructure:"filtering"`
}
