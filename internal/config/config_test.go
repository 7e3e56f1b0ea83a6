package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("MAX_CASH_DISCOUNT_PERCENT", "")

	cfg := Load()
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 9.0, cfg.MaxCashDiscountPercent)
	assert.Equal(t, 5*time.Minute, cfg.AnalyticsCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("ANALYTICS_CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("LEAD_RATE_LIMIT", "not-a-number")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 90*time.Second, cfg.AnalyticsCacheTTL)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(30), cfg.LeadRateLimit)
}
