package domain

import "time"

// TempChannel es la sala de pago efímera de un usuario.
// Vive sólo en memoria: Discord es la fuente de verdad de su existencia.
type TempChannel struct {
	ChannelID     string
	OwnerUserID   string
	GuildID       string
	BaseChannelID string
	CreatedAt     time.Time
}

func (t TempChannel) Age(now time.Time) time.Duration { return now.Sub(t.CreatedAt) }

// UPIProfile: upi_id, name y note pueden venir cifrados (Encrypted=true).
type UPIProfile struct {
	UserID      string
	UPIID       string
	Name        string
	Note        string
	Encrypted   bool
	CreatedAt   time.Time
	LastUpdated time.Time
	UsageCount  int
	Deleted     bool
	DeletedAt   *time.Time
}

type AnalyticsEvent struct {
	ID        string
	EventType string
	Timestamp time.Time
	UserID    string // vacío para eventos de sistema
	GuildID   string
	Data      map[string]any
}

// tipos de evento
const (
	EventUPISaved           = "upi_saved"
	EventQRGenerated        = "qr_generated"
	EventTempChannelCreated = "temp_channel_created"
	EventTempChannelDeleted = "temp_channel_deleted"
	EventBotMetrics         = "bot_metrics"
	EventGuildJoin          = "guild_join"
	EventGuildLeave         = "guild_leave"
)

// UserStats para /myupi
type UserStats struct {
	Found       bool
	UsageCount  int
	QRGenerated int64
	LastUsed    time.Time
	CreatedAt   time.Time
}

type GlobalStats struct {
	TotalUsers       int64
	TotalQRGenerated int64
	TotalUPISaved    int64
	DatabaseSizeMB   float64
}
