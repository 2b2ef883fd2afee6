package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, TransportMemory, cfg.Realtime.Transport)
	assert.Equal(t, 2, cfg.Scheduling.MaxSpanYears)
	assert.Equal(t, 30, cfg.Scheduling.NextSlotWindowDays)
	assert.Equal(t, 30, cfg.Scheduling.CompletionThresholdDays)
	assert.Equal(t, 12*time.Hour, cfg.Holidays.CacheTTL)
	assert.Equal(t, "@every 6h", cfg.Holidays.RefreshSpec)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REALTIME_TRANSPORT", "Redis")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("HOLIDAY_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, TransportRedis, cfg.Realtime.Transport)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 12*time.Hour, cfg.Holidays.CacheTTL)
}

func TestSchedulingSpanIsClamped(t *testing.T) {
	t.Setenv("SCHEDULING_MAX_SPAN_YEARS", "25")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Scheduling.MaxSpanYears)

	t.Setenv("SCHEDULING_MAX_SPAN_YEARS", "-3")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Scheduling.MaxSpanYears)

	t.Setenv("SCHEDULING_MAX_SPAN_YEARS", "5")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Scheduling.MaxSpanYears)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{TimeZone: "Mars/Olympus_Mons"}
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, time.UTC, (&Config{}).Location())
}
