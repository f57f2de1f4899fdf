package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "FOXDNS"

// Load reads the ambient config from an optional YAML file at path (may be
// empty, meaning defaults plus environment only), with FOXDNS_* environment
// variables overriding file values, using Viper's usual layering:
// env > file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	initViper(v, path)
	setDefaults(v)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func initViper(v *viper.Viper, path string) {
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.ip_qps", 20.0)
	v.SetDefault("rate_limit.ip_burst", 40.0)
	v.SetDefault("rate_limit.max_tracked_ips", 16384)
	v.SetDefault("rate_limit.prefix_qps", 100.0)
	v.SetDefault("rate_limit.prefix_burst", 200.0)
	v.SetDefault("rate_limit.max_tracked_prefixes", 4096)
	v.SetDefault("rate_limit.cleanup_seconds", 60.0)

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", "foxdns.db")

	v.SetDefault("filtering.blocklist_path", "")
}
