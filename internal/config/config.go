package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with KBASE_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	Backend    string // "file" | "sqlite" | "redis" | "memory"
	DataDir    string // directory of the file backend
	SQLitePath string // database file of the sqlite backend
	StorageKey string // key the catalog document is stored under

	// Seed import
	SeedFile     string        // optional YAML seed, empty = no seeding
	SeedInterval time.Duration // 0 = import at start and on POST /reload only

	// Redis (only read when Backend == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "127.0.0.1, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	// Write rate limiting, per client IP
	RateLimitBurst     int // bucket capacity
	RateLimitPerMinute int // refill rate
}

func Load() *Config {
	dataDir := getenv("KBASE_DATA_DIR", "./data")

	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("KBASE_LISTEN_ADDR", "127.0.0.1:8080"),
		ShutdownTimeout: mustDuration("KBASE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("KBASE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("KBASE_PRETTY_LOG", true),

		// Storage
		Backend:    strings.ToLower(getenv("KBASE_BACKEND", BackendFile)),
		DataDir:    dataDir,
		SQLitePath: getenv("KBASE_SQLITE_PATH", filepath.Join(dataDir, "kbase.db")),
		StorageKey: getenv("KBASE_STORAGE_KEY", "knowledge_base"),

		// Seed
		SeedFile:     getenv("KBASE_SEED_FILE", ""),
		SeedInterval: mustDuration("KBASE_SEED_INTERVAL", 0),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("KBASE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("KBASE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("KBASE_TRUST_PROXY", false),

		RateLimitBurst:     getenvInt("KBASE_RATE_LIMIT_BURST", 20),
		RateLimitPerMinute: getenvInt("KBASE_RATE_LIMIT_PER_MINUTE", 60),
	}

	switch cfg.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown KBASE_BACKEND %q (want file, sqlite, redis or memory)", cfg.Backend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("KBASE_REDIS_ADDR")
	cfg.RedisUser = getenv("KBASE_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("KBASE_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("KBASE_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("KBASE_REDIS_DB")
	cfg.RedisDT = mustDuration("KBASE_REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("KBASE_REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("KBASE_REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("KBASE_REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("KBASE_REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("KBASE_REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("KBASE_REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("KBASE_REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("KBASE_REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: KBASE_REDIS_PASSWORD is required when KBASE_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
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
