package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VIDEOSTREAM_LISTEN_PORT", "VIDEOSTREAM_SHUTDOWN_TIMEOUT", "VIDEOSTREAM_REQUEST_TIMEOUT",
		"VIDEOSTREAM_LOG_LEVEL", "VIDEOSTREAM_PRETTY_LOG",
		"VIDEOSTREAM_STORE_DRIVER", "VIDEOSTREAM_DATABASE_DSN",
		"VIDEOSTREAM_REDIS_ADDR", "VIDEOSTREAM_REDIS_USERNAME", "VIDEOSTREAM_REDIS_PASSWORD",
		"VIDEOSTREAM_REDIS_DB", "VIDEOSTREAM_REDIS_POOL_SIZE", "VIDEOSTREAM_CACHE_TTL",
		"VIDEOSTREAM_CONNECT_TIMEOUT", "VIDEOSTREAM_RETRY_INTERVAL", "VIDEOSTREAM_MAX_WAIT",
		"VIDEOSTREAM_PING_TIMEOUT", "VIDEOSTREAM_WARN_THRESHOLD",
		"VIDEOSTREAM_SEED_FILE", "VIDEOSTREAM_ALLOWED_CIDRS", "VIDEOSTREAM_TRUST_PROXY",
		"VIDEOSTREAM_RATE_LIMIT_BURST", "VIDEOSTREAM_RATE_LIMIT_PER_MIN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.CacheTTL != 0 || cfg.CacheEnabled() {
		t.Errorf("cache should be disabled by default, CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.RateLimitBurst != 0 {
		t.Errorf("RateLimitBurst = %d, want 0", cfg.RateLimitBurst)
	}
	if cfg.AllowedCIDRS != nil {
		t.Errorf("AllowedCIDRS = %v, want nil", cfg.AllowedCIDRS)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIDEOSTREAM_STORE_DRIVER", "Postgres")
	t.Setenv("VIDEOSTREAM_DATABASE_DSN", "postgres://u:p@db/videos")
	t.Setenv("VIDEOSTREAM_REDIS_ADDR", "cache:6379")
	t.Setenv("VIDEOSTREAM_CACHE_TTL", "2m")
	t.Setenv("VIDEOSTREAM_ALLOWED_CIDRS", `"10.0.0.0/8", 127.0.0.1`)
	t.Setenv("VIDEOSTREAM_RATE_LIMIT_BURST", "20")

	cfg := Load()

	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("StoreDriver = %q, want postgres", cfg.StoreDriver)
	}
	if !cfg.CacheEnabled() {
		t.Error("CacheEnabled() = false, want true for postgres + redis addr + ttl")
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[0] != "10.0.0.0/8" || cfg.AllowedCIDRS[1] != "127.0.0.1" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if cfg.RateLimitBurst != 20 {
		t.Errorf("RateLimitBurst = %d, want 20", cfg.RateLimitBurst)
	}
}

func TestLoadPanicsOnInvalidDriverConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"VIDEOSTREAM_STORE_DRIVER": "cassandra"},
		},
		{
			name: "redis without address",
			env:  map[string]string{"VIDEOSTREAM_STORE_DRIVER": "redis"},
		},
		{
			name: "postgres without dsn",
			env:  map[string]string{"VIDEOSTREAM_STORE_DRIVER": "postgres"},
		},
		{
			name: "sqlite without dsn",
			env:  map[string]string{"VIDEOSTREAM_STORE_DRIVER": "sqlite"},
		},
		{
			name: "negative rate limit",
			env:  map[string]string{"VIDEOSTREAM_RATE_LIMIT_BURST": "-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestCacheEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"sql with cache", Config{StoreDriver: DriverMySQL, RedisAddr: "r:6379", CacheTTL: time.Minute}, true},
		{"no ttl", Config{StoreDriver: DriverMySQL, RedisAddr: "r:6379"}, false},
		{"no redis", Config{StoreDriver: DriverSQLite, CacheTTL: time.Minute}, false},
		{"redis store never cached twice", Config{StoreDriver: DriverRedis, RedisAddr: "r:6379", CacheTTL: time.Minute}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.CacheEnabled(); got != tt.want {
				t.Errorf("CacheEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "5s", def: time.Second, expected: 5 * time.Second},
		{name: "invalid duration uses default", value: "invalid", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing variable uses default", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true", value: "true", def: false, expected: true},
		{name: "numeric false", value: "0", def: true, expected: false},
		{name: "invalid uses default", value: "maybe", def: true, expected: true},
		{name: "missing uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}

	t.Setenv("TEST_INT", "forty-two")
	if got := getenvInt("TEST_INT", 1); got != 1 {
		t.Errorf("getenvInt() with invalid value = %d, want default 1", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a , "b",, 'c' `)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitAndTrim("") != nil {
		t.Error("splitAndTrim(\"\") should be nil")
	}
}
