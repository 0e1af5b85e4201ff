package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, uint(5432), cfg.DB.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("ACCESS_TOKEN_TTL", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.com, https://b.com")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ZAPI_INSTANCE", "inst")
	t.Setenv("ZAPI_TOKEN", "tok")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, uint(6543), cfg.DB.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.ZAPI.Enabled())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := AppConfig{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, time.UTC, cfg.Location())
}
