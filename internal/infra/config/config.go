package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jose-valero/upi-rooms-bot/internal/apperr"
)

const minCleanupInterval = 30 * time.Second

type Config struct {
	DiscordToken string
	BotOwnerID   string
	BotActivity  string

	DatabaseURL string // postgres:// o mongodb://
	MongoDBName string

	VoiceChannelIDs        []string // lobbies monitoreados
	VoiceCooldown          time.Duration
	MaxTempChannelsPerUser int
	TempChannelMaxAge      time.Duration
	TempChannelGrace       time.Duration
	CleanupInterval        time.Duration

	MaxCommandsPerMinute int
	CommandCooldown      time.Duration

	EncryptionKey string // vacío => key efímera

	EnableAnalytics    bool
	AnalyticsRetention time.Duration

	EnableDashboard bool
	DashboardToken  string
	HTTPAddr        string

	LogLevel string
	LogDev   bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("MONGO_DB_NAME", "upi_bot")
	v.SetDefault("VOICE_COOLDOWN_SECONDS", 30)
	v.SetDefault("MAX_TEMP_CHANNELS_PER_USER", 3)
	v.SetDefault("TEMP_CHANNEL_MAX_AGE_HOURS", 2)
	v.SetDefault("TEMP_CHANNEL_GRACE_SECONDS", 5)
	v.SetDefault("AUTO_CLEANUP_MINUTES", 60)
	v.SetDefault("MAX_COMMANDS_PER_MINUTE", 5)
	v.SetDefault("COMMAND_COOLDOWN_SECONDS", 20)
	v.SetDefault("ENABLE_ANALYTICS", true)
	v.SetDefault("ANALYTICS_RETENTION_DAYS", 30)
	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("BOT_ACTIVITY", "/setup | UPI payment rooms")
}

// Load lee el entorno (el .env ya lo cargó main con godotenv) y valida.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return FromViper(v)
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DiscordToken: strings.TrimSpace(v.GetString("DISCORD_TOKEN")),
		BotOwnerID:   strings.TrimSpace(v.GetString("BOT_OWNER_ID")),
		BotActivity:  v.GetString("BOT_ACTIVITY"),

		DatabaseURL: firstNonEmpty(v.GetString("DATABASE_URL"), v.GetString("MONGO_URI")),
		MongoDBName: v.GetString("MONGO_DB_NAME"),

		VoiceChannelIDs:        splitIDs(v.GetString("VOICE_CHANNEL_IDS")),
		VoiceCooldown:          seconds(v.GetFloat64("VOICE_COOLDOWN_SECONDS")),
		MaxTempChannelsPerUser: v.GetInt("MAX_TEMP_CHANNELS_PER_USER"),
		TempChannelMaxAge:      time.Duration(v.GetFloat64("TEMP_CHANNEL_MAX_AGE_HOURS") * float64(time.Hour)),
		TempChannelGrace:       seconds(v.GetFloat64("TEMP_CHANNEL_GRACE_SECONDS")),
		CleanupInterval:        time.Duration(v.GetFloat64("AUTO_CLEANUP_MINUTES") * float64(time.Minute)),

		MaxCommandsPerMinute: v.GetInt("MAX_COMMANDS_PER_MINUTE"),
		CommandCooldown:      seconds(v.GetFloat64("COMMAND_COOLDOWN_SECONDS")),

		EncryptionKey: v.GetString("ENCRYPTION_KEY"),

		EnableAnalytics:    v.GetBool("ENABLE_ANALYTICS"),
		AnalyticsRetention: time.Duration(v.GetInt("ANALYTICS_RETENTION_DAYS")) * 24 * time.Hour,

		EnableDashboard: v.GetBool("ENABLE_DASHBOARD"),
		DashboardToken:  v.GetString("DASHBOARD_TOKEN"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogDev:   v.GetBool("LOG_DEV"),
	}

	if cfg.HTTPAddr == "" {
		if port := v.GetString("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":10000"
		}
	}
	if cfg.CleanupInterval < minCleanupInterval {
		cfg.CleanupInterval = minCleanupInterval
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate junta todos los problemas en un solo error.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if c.DiscordToken == "" {
		add("DISCORD_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		add("DATABASE_URL (or MONGO_URI) is required")
	}
	if len(c.VoiceChannelIDs) == 0 {
		add("VOICE_CHANNEL_IDS is required")
	}
	if n := len(c.EncryptionKey); n != 0 && n != 32 {
		add("ENCRYPTION_KEY must be empty or exactly 32 characters (got %d)", n)
	}
	if c.MaxTempChannelsPerUser < 1 {
		add("MAX_TEMP_CHANNELS_PER_USER must be >= 1")
	}
	if c.MaxCommandsPerMinute < 1 {
		add("MAX_COMMANDS_PER_MINUTE must be >= 1")
	}
	if c.VoiceCooldown < 0 || c.CommandCooldown < 0 || c.TempChannelGrace < 0 {
		add("cooldowns and grace must not be negative")
	}
	if c.TempChannelMaxAge <= 0 {
		add("TEMP_CHANNEL_MAX_AGE_HOURS must be > 0")
	}
	if c.AnalyticsRetention <= 0 {
		add("ANALYTICS_RETENTION_DAYS must be > 0")
	}

	if len(errs) == 0 {
		return nil
	}
	return apperr.Wrap(apperr.CodeConfig, "invalid configuration", errors.Join(errs...))
}

// UsesMongo: el backend sale del esquema de DATABASE_URL.
func (c Config) UsesMongo() bool {
	u := strings.ToLower(c.DatabaseURL)
	return strings.HasPrefix(u, "mongodb://") || strings.HasPrefix(u, "mongodb+srv://")
}

func splitIDs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func seconds(f float64) time.Duration { return time.Duration(f * float64(time.Second)) }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
