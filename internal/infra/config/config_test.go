package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/upi-rooms-bot/internal/apperr"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/upi?sslmode=disable")
	t.Setenv("VOICE_CHANNEL_IDS", " 111, 222 ,,")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"111", "222"}, cfg.VoiceChannelIDs)
	assert.Equal(t, "upi_bot", cfg.MongoDBName)
	assert.Equal(t, 30*time.Second, cfg.VoiceCooldown)
	assert.Equal(t, 3, cfg.MaxTempChannelsPerUser)
	assert.Equal(t, 2*time.Hour, cfg.TempChannelMaxAge)
	assert.Equal(t, 5*time.Second, cfg.TempChannelGrace)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 5, cfg.MaxCommandsPerMinute)
	assert.Equal(t, 20*time.Second, cfg.CommandCooldown)
	assert.True(t, cfg.EnableAnalytics)
	assert.Equal(t, 30*24*time.Hour, cfg.AnalyticsRetention)
	assert.Equal(t, ":10000", cfg.HTTPAddr)
	assert.False(t, cfg.UsesMongo())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "mongodb+srv://cluster0.example.net")
	t.Setenv("PORT", "8080")
	t.Setenv("AUTO_CLEANUP_MINUTES", "0.1")
	t.Setenv("ENABLE_ANALYTICS", "false")
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.UsesMongo())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.CleanupInterval, "clamped to the minimum")
	assert.False(t, cfg.EnableAnalytics)
}

func TestLoad_CollectsAllProblems(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("VOICE_CHANNEL_IDS", "")
	t.Setenv("ENCRYPTION_KEY", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConfig, apperr.CodeOf(err))
	for _, want := range []string{"DISCORD_TOKEN", "DATABASE_URL", "VOICE_CHANNEL_IDS", "ENCRYPTION_KEY"} {
		assert.Contains(t, err.Error(), want)
	}
}
