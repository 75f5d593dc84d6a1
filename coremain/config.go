package coremain

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/vpetersson/ipgeolocation/mlog"
)

const (
	defaultBindAddress = "0.0.0.0:3000"
	defaultDBPath      = "GeoLite2-City.mmdb"
	defaultCacheSize   = 10000
	defaultCacheTTL    = 3600
)

// Config is assembled from the environment. Every knob has a default
// so a bare `ipgeolocation start` works next to a database file.
type Config struct {
	Log mlog.LogConfig

	// BindAddress is the TCP listen address of the API.
	BindAddress string

	// APIAddress optionally serves /metrics and pprof on a separate
	// listener. Empty disables it.
	APIAddress string

	// GeoIPDBPath locates the mmdb city database.
	GeoIPDBPath string

	// WatchDB reloads the database when the file changes on disk.
	WatchDB bool

	// CacheSize caps the number of cached lookup results.
	CacheSize int

	// CacheTTLSecs is the lifetime of a cached result in seconds.
	CacheTTLSecs int

	// RedisAddr switches the cache to a shared redis instance,
	// e.g. "localhost:6379". Empty keeps the in-process cache.
	RedisAddr string

	// ProxyProtocol accepts PROXY protocol headers on the TCP listener.
	ProxyProtocol bool

	// HTTP3Enabled starts the reduced datagram listener. Requires the
	// TLS cert and key.
	HTTP3Enabled     bool
	HTTP3BindAddress string
	TLSCertPath      string
	TLSKeyPath       string
}

func loadConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("BIND_ADDRESS", defaultBindAddress)
	v.SetDefault("API_ADDRESS", "")
	v.SetDefault("GEOIP_DB_PATH", defaultDBPath)
	v.SetDefault("GEOIP_DB_WATCH", false)
	v.SetDefault("CACHE_SIZE", defaultCacheSize)
	v.SetDefault("CACHE_TTL_SECS", defaultCacheTTL)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("PROXY_PROTOCOL", false)
	v.SetDefault("HTTP3_ENABLED", false)
	v.SetDefault("HTTP3_BIND_ADDRESS", "0.0.0.0:3443")
	v.SetDefault("TLS_CERT_PATH", "")
	v.SetDefault("TLS_KEY_PATH", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_PRODUCTION", false)

	return &Config{
		Log: mlog.LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			Production: v.GetBool("LOG_PRODUCTION"),
		},
		BindAddress:      v.GetString("BIND_ADDRESS"),
		APIAddress:       v.GetString("API_ADDRESS"),
		GeoIPDBPath:      v.GetString("GEOIP_DB_PATH"),
		WatchDB:          v.GetBool("GEOIP_DB_WATCH"),
		CacheSize:        v.GetInt("CACHE_SIZE"),
		CacheTTLSecs:     v.GetInt("CACHE_TTL_SECS"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		ProxyProtocol:    v.GetBool("PROXY_PROTOCOL"),
		HTTP3Enabled:     v.GetBool("HTTP3_ENABLED"),
		HTTP3BindAddress: v.GetString("HTTP3_BIND_ADDRESS"),
		TLSCertPath:      v.GetString("TLS_CERT_PATH"),
		TLSKeyPath:       v.GetString("TLS_KEY_PATH"),
	}
}
