package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for API routes (not the live feed)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store    string // "redis" | "memory"
	SeedFile string // optional YAML file imported when the vault is empty

	// Redis
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

	// Live feed
	FeedWriteWait time.Duration // max time to write one websocket message
	FeedPongWait  time.Duration // max time between client pongs

	// Access
	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict admin endpoints to specific IPs/CIDRs
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	AllowedOrigins []string // CORS + websocket origins, empty => any

	// Write endpoints rate limit
	RateLimitBurst     int // requests allowed in a burst per client IP
	RateLimitPerMinute int // refill rate per client IP
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first; real environment variables win.
func Load() *Config {
	envFile := getenv("VARLINK_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] failed to load %s: %v", envFile, err)
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("VARLINK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("VARLINK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("VARLINK_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("VARLINK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("VARLINK_PRETTY_LOG", true),

		// Storage
		Store:    strings.ToLower(getenv("VARLINK_STORE", StoreRedis)),
		SeedFile: getenv("VARLINK_SEED_FILE", ""),

		// Redis settings
		RedisUser:             getenv("VARLINK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("VARLINK_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("VARLINK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("VARLINK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Live feed
		FeedWriteWait: mustDuration("VARLINK_FEED_WRITE_WAIT", 10*time.Second),
		FeedPongWait:  mustDuration("VARLINK_FEED_PONG_WAIT", 60*time.Second),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("VARLINK_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("VARLINK_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("VARLINK_TRUST_PROXY", false),
		AllowedOrigins: splitAndTrim(getenv("VARLINK_ALLOWED_ORIGINS", "")),

		RateLimitBurst:     getenvInt("VARLINK_RATE_LIMIT_BURST", 30),
		RateLimitPerMinute: getenvInt("VARLINK_RATE_LIMIT_PER_MINUTE", 120),
	}

	switch cfg.Store {
	case StoreRedis:
		cfg.RedisAddr = requireEnv("VARLINK_REDIS_ADDR")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: VARLINK_REDIS_PASSWORD is required when VARLINK_REDIS_PASSWORD_REQUIRED=true")
		}
	case StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: unknown VARLINK_STORE %q (want %q or %q)", cfg.Store, StoreRedis, StoreMemory))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
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
