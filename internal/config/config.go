package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/repricelab/ebay-connect/internal/domain/ebay"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	AccessTokenTTL time.Duration

	EbaySandbox     bool
	EbayRedirectURI string
	EbayScope       string
	EbayHTTPTimeout time.Duration
	PendingAuthTTL  time.Duration

	// AllowFallbackCredentials enables the process-wide credential triple as a
	// last resort when a callback arrives without a pending context. Off by
	// default; callbacks then fail instead of mixing tenants' app identities.
	AllowFallbackCredentials bool
	FallbackCredentials      ebay.Credentials

	ServiceName       string
	RateLimitRPM      int
	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: getDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),

		EbaySandbox:     getBool("EBAY_SANDBOX", false),
		EbayRedirectURI: getEnv("EBAY_REDIRECT_URI", "http://localhost:8080/ebay/callback"),
		EbayScope:       getEnv("EBAY_SCOPE", "https://api.ebay.com/oauth/api_scope"),
		EbayHTTPTimeout: getDuration("EBAY_HTTP_TIMEOUT", 10*time.Second),
		PendingAuthTTL:  getDuration("EBAY_PENDING_AUTH_TTL", 10*time.Minute),

		AllowFallbackCredentials: getBool("EBAY_ALLOW_FALLBACK_CREDENTIALS", false),
		FallbackCredentials: ebay.Credentials{
			AppID:  os.Getenv("EBAY_APP_ID"),
			CertID: os.Getenv("EBAY_CERT_ID"),
			DevID:  os.Getenv("EBAY_DEV_ID"),
		},

		ServiceName:       getEnv("SERVICE_NAME", "ebay-connect"),
		RateLimitRPM:      getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AllowFallbackCredentials && !cfg.FallbackCredentials.Complete() {
		return Config{}, fmt.Errorf("EBAY_ALLOW_FALLBACK_CREDENTIALS requires EBAY_APP_ID, EBAY_CERT_ID, and EBAY_DEV_ID")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
