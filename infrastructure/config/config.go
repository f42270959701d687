// Package config loads the server's configuration from the
// environment (env-var loading plus a Validate() pass): cache policy,
// ETag weakness, versioning, Memento link parameters, extension-graph
// mapping, and triplestore location.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// ExtensionGraphs maps a configured `?ext=` name to the GraphName it
// addresses, e.g. {"acl": PreferAccessControl}. Names outside this map,
// apart from the built-in timemap, audit and description surfaces that
// ExtensionNames adds, are treated as absent by httpreq.Parse.
type ExtensionGraphs map[string]rdf.GraphName

// Config holds every recognized configuration key, plus the ambient
// server/logging keys.
type Config struct {
	// Server configuration
	ServerAddress  string
	BaseURL        string
	Environment    string
	LogLevel       string
	RequestTimeout time.Duration

	// Engine behavior
	CacheMaxAge           time.Duration
	CacheMustRevalidate   bool
	CacheNoCache          bool
	WeakETagsAlways       bool
	VersioningEnabled     bool
	IncludeMementoDates   bool
	ExtensionGraphs       ExtensionGraphs
	TriplestoreLocation   string // "" = memory, http(s):// = remote, else filesystem path
	IncludeLDPTypeInBody  bool
	StrictPreconditions   bool
	BinaryStorageRoot     string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		CacheMaxAge:          getEnvDuration("CACHE_MAX_AGE", 86400*time.Second),
		CacheMustRevalidate:  getEnvBool("CACHE_MUST_REVALIDATE", true),
		CacheNoCache:         getEnvBool("CACHE_NO_CACHE", false),
		WeakETagsAlways:      getEnvBool("WEAK_ETAGS_ALWAYS", true),
		VersioningEnabled:    getEnvBool("VERSIONING_ENABLED", true),
		IncludeMementoDates:  getEnvBool("INCLUDE_MEMENTO_DATES", true),
		ExtensionGraphs:      parseExtensionGraphs(getEnv("EXT_GRAPHS", "acl=http://www.w3.org/ns/auth/acl#PreferAccessControl")),
		TriplestoreLocation:  getEnv("TRIPLESTORE_LOCATION", ""),
		IncludeLDPTypeInBody: getEnvBool("INCLUDE_LDP_TYPE_IN_BODY", true),
		StrictPreconditions:  getEnvBool("STRICT_PRECONDITIONS", false),
		BinaryStorageRoot:    getEnv("BINARY_STORAGE_ROOT", "./data/binaries"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility.
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks that configuration values are internally consistent.
func (c *Config) Validate() error {
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("CACHE_MAX_AGE must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if len(c.ExtensionGraphs) == 0 {
		return fmt.Errorf("EXT_GRAPHS must configure at least one extension graph")
	}
	return nil
}

// IsDevelopment reports whether Environment is "development".
func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

// IsProduction reports whether Environment is "production".
func (c *Config) IsProduction() bool { return c.Environment == "production" }

// ExtensionNames returns the ?ext= allow-list httpreq.Parse expects:
// the configured extension-graph names plus the built-in surface
// parameters recognized regardless of graph configuration (timemap,
// audit, description).
func (c *Config) ExtensionNames() map[string]bool {
	names := map[string]bool{"timemap": true, "audit": true, "description": true}
	for name := range c.ExtensionGraphs {
		names[name] = true
	}
	return names
}

// CacheControlHeader renders the Cache-Control response header value
// from CacheMaxAge/CacheMustRevalidate/CacheNoCache.
func (c *Config) CacheControlHeader() string {
	if c.CacheNoCache {
		return "no-cache"
	}
	parts := []string{fmt.Sprintf("max-age=%d", int(c.CacheMaxAge.Seconds()))}
	if c.CacheMustRevalidate {
		parts = append(parts, "must-revalidate")
	}
	return strings.Join(parts, ", ")
}

// parseExtensionGraphs parses "name=IRI[,name=IRI]" into an
// ExtensionGraphs map.
func parseExtensionGraphs(raw string) ExtensionGraphs {
	out := make(ExtensionGraphs)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = rdf.GraphName(strings.TrimSpace(kv[1]))
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
