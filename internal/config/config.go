package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by VIDEOSTREAM_STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline (ex: 5s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreDriver string // memory | redis | postgres | sqlite | mysql
	DatabaseDSN string // connection string for postgres/sqlite/mysql

	// Redis: storage when StoreDriver=redis, read-through cache for SQL drivers when CacheTTL > 0
	RedisAddr     string        // ex: "localhost:6379"
	RedisUser     string        // optional
	RedisPassword string        // optional
	RedisDB       int           // Redis DB number
	RedisPoolSize int           // Redis connection pool size
	CacheTTL      time.Duration // 0 disables the video cache

	// Startup connectivity, shared by every networked driver
	ConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries, grows exponentially (ex: 2s)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	WarnThreshold  int           // warn after this many attempts, then error

	SeedFile string // optional YAML catalog loaded into an empty store

	AllowedCIDRS    []string // optional, restrict /healthz and /readyz to these IPs/CIDRs
	TrustProxy      bool     // true => trust X-Forwarded-For headers
	RateLimitBurst  int      // per-IP burst on /api, 0 disables rate limiting
	RateLimitPerMin int      // per-IP refill rate on /api
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("VIDEOSTREAM_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("VIDEOSTREAM_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("VIDEOSTREAM_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("VIDEOSTREAM_LOG_LEVEL", "info"),
		PrettyLog: mustBool("VIDEOSTREAM_PRETTY_LOG", true),

		// Storage
		StoreDriver: strings.ToLower(getenv("VIDEOSTREAM_STORE_DRIVER", DriverMemory)),
		DatabaseDSN: getenv("VIDEOSTREAM_DATABASE_DSN", ""),

		// Redis settings
		RedisAddr:     getenv("VIDEOSTREAM_REDIS_ADDR", ""),
		RedisUser:     getenv("VIDEOSTREAM_REDIS_USERNAME", ""),
		RedisPassword: getenv("VIDEOSTREAM_REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("VIDEOSTREAM_REDIS_DB", 0),
		RedisPoolSize: getenvInt("VIDEOSTREAM_REDIS_POOL_SIZE", 10),
		CacheTTL:      mustDuration("VIDEOSTREAM_CACHE_TTL", 0),

		// Connectivity
		ConnectTimeout: mustDuration("VIDEOSTREAM_CONNECT_TIMEOUT", 30*time.Second),
		RetryInterval:  mustDuration("VIDEOSTREAM_RETRY_INTERVAL", 2*time.Second),
		MaxWait:        mustDuration("VIDEOSTREAM_MAX_WAIT", 10*time.Second),
		PingTimeout:    mustDuration("VIDEOSTREAM_PING_TIMEOUT", 5*time.Second),
		WarnThreshold:  getenvInt("VIDEOSTREAM_WARN_THRESHOLD", 3),

		SeedFile: getenv("VIDEOSTREAM_SEED_FILE", ""),

		// Access
		AllowedCIDRS:    parseAllowedIPs(getenv("VIDEOSTREAM_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("VIDEOSTREAM_TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("VIDEOSTREAM_RATE_LIMIT_BURST", 0),
		RateLimitPerMin: getenvInt("VIDEOSTREAM_RATE_LIMIT_PER_MIN", 60),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfgCopy.DatabaseDSN != "" {
			cfgCopy.DatabaseDSN = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// validate checks the driver-specific requirements.
func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("VIDEOSTREAM_REDIS_ADDR is required when VIDEOSTREAM_STORE_DRIVER=%s", c.StoreDriver)
		}
	case DriverPostgres, DriverSQLite, DriverMySQL:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("VIDEOSTREAM_DATABASE_DSN is required when VIDEOSTREAM_STORE_DRIVER=%s", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown VIDEOSTREAM_STORE_DRIVER %q (want memory, redis, postgres, sqlite or mysql)", c.StoreDriver)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("VIDEOSTREAM_CACHE_TTL must be >= 0, got %v", c.CacheTTL)
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("VIDEOSTREAM_RATE_LIMIT_BURST must be >= 0, got %d", c.RateLimitBurst)
	}
	return nil
}

// CacheEnabled reports whether a Redis read-through cache should front the store.
func (c *Config) CacheEnabled() bool {
	return c.CacheTTL > 0 && c.RedisAddr != "" && c.StoreDriver != DriverRedis
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
