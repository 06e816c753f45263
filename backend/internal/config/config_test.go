package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "EVENT_LOG_DRIVER", "FOLLOWUP_DEFAULT", "BREAKER_TIMEOUT", "POLICY_PATH"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "jsonl", cfg.EventLog.Driver)
	assert.Equal(t, "24h", cfg.FollowUp.Default)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Breaker.Timeout)
	assert.Empty(t, cfg.Policies.Path)
	assert.True(t, cfg.Policies.WatchChanges)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_READ_TIMEOUT_SEC", "3")
	t.Setenv("EVENT_LOG_DRIVER", "sqlite")
	t.Setenv("EVENT_LOG_PATH", "events.db")
	t.Setenv("DISPATCH_GATEWAY_URL", "http://gateway:7000")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("BREAKER_TIMEOUT", "1m")
	t.Setenv("FOLLOWUP_GRACE", "6h")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.EventLog.Driver)
	assert.Equal(t, "events.db", cfg.EventLog.Path)
	assert.Equal(t, "http://gateway:7000", cfg.Dispatch.GatewayURL)
	assert.False(t, cfg.Dispatch.Breaker.Enabled)
	assert.Equal(t, time.Minute, cfg.Dispatch.Breaker.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.FollowUp.Grace)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("POLICY_WATCH_CHANGES", "sometimes")
	t.Setenv("FOLLOWUP_GRACE", "a while")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Policies.WatchChanges)
	assert.Equal(t, 12*time.Hour, cfg.FollowUp.Grace)
}
