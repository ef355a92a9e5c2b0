package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ebay_connect")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 10*time.Minute, cfg.PendingAuthTTL)
	require.Equal(t, 10*time.Second, cfg.EbayHTTPTimeout)
	require.False(t, cfg.EbaySandbox)
	require.False(t, cfg.AllowFallbackCredentials)
	require.Equal(t, "https://api.ebay.com/oauth/api_scope", cfg.EbayScope)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ebay_connect")
	t.Setenv("JWT_SECRET", "   ")

	_, err := Load()
	require.Error(t, err)
}

func TestFallbackCredentialsRequireCompleteTriple(t *testing.T) {
	setRequired(t)
	t.Setenv("EBAY_ALLOW_FALLBACK_CREDENTIALS", "true")
	t.Setenv("EBAY_APP_ID", "app-id")
	t.Setenv("EBAY_CERT_ID", "cert-id")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("EBAY_DEV_ID", "dev-id")
	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.AllowFallbackCredentials)
	require.True(t, cfg.FallbackCredentials.Complete())
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("EBAY_SANDBOX", "true")
	t.Setenv("EBAY_PENDING_AUTH_TTL", "5m")
	t.Setenv("RATE_LIMIT_RPM", "120")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.EbaySandbox)
	require.Equal(t, 5*time.Minute, cfg.PendingAuthTTL)
	require.Equal(t, 120, cfg.RateLimitRPM)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}
