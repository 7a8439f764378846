package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "livequiz", cfg.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, 10, cfg.Admission.RateLimit)
	assert.Equal(t, time.Minute, cfg.Admission.Window)
	assert.True(t, cfg.Admission.RequireUserAgent)
	assert.Equal(t, 256, cfg.WS.SendQueueSize)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ADMISSION_RATE_LIMIT", "3")
	t.Setenv("ADMISSION_WINDOW", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://quiz.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 3, cfg.Admission.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Admission.Window)
	assert.Equal(t, []string{"https://quiz.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("ADMISSION_RATE_LIMIT", "0")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "ADMISSION_RATE_LIMIT")
}

func TestLoad_RejectsMalformedDuration(t *testing.T) {
	t.Setenv("WS_PONG_WAIT", "soon")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
