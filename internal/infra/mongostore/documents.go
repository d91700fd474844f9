package mongostore

import (
	"time"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

type profileDoc struct {
	UserID      string     `bson:"user_id"`
	UPIID       string     `bson:"upi_id"`
	Name        string     `bson:"name"`
	Note        string     `bson:"note"`
	Encrypted   bool       `bson:"encrypted"`
	CreatedAt   time.Time  `bson:"created_at"`
	LastUpdated time.Time  `bson:"last_updated"`
	UsageCount  int        `bson:"usage_count"`
	Deleted     bool       `bson:"deleted"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty"`
}

func toProfileDoc(p domain.UPIProfile) profileDoc {
	return profileDoc{
		UserID:      p.UserID,
		UPIID:       p.UPIID,
		Name:        p.Name,
		Note:        p.Note,
		Encrypted:   p.Encrypted,
		CreatedAt:   p.CreatedAt.UTC(),
		LastUpdated: p.LastUpdated.UTC(),
		UsageCount:  p.UsageCount,
	}
}

func (d profileDoc) toDomain() domain.UPIProfile {
	return domain.UPIProfile{
		UserID:      d.UserID,
		UPIID:       d.UPIID,
		Name:        d.Name,
		Note:        d.Note,
		Encrypted:   d.Encrypted,
		CreatedAt:   d.CreatedAt,
		LastUpdated: d.LastUpdated,
		UsageCount:  d.UsageCount,
		Deleted:     d.Deleted,
		DeletedAt:   d.DeletedAt,
	}
}

type eventDoc struct {
	ID        string         `bson:"_id"`
	EventType string         `bson:"event_type"`
	Timestamp time.Time      `bson:"timestamp"`
	UserID    string         `bson:"user_id,omitempty"`
	GuildID   string         `bson:"guild_id,omitempty"`
	Data      map[string]any `bson:"data,omitempty"`
}

func toEventDoc(e domain.AnalyticsEvent) eventDoc {
	return eventDoc{
		ID:        e.ID,
		EventType: e.EventType,
		Timestamp: e.Timestamp.UTC(),
		UserID:    e.UserID,
		GuildID:   e.GuildID,
		Data:      e.Data,
	}
}

type tempChannelDoc struct {
	ChannelID     string    `bson:"channel_id"`
	OwnerUserID   string    `bson:"owner_user_id"`
	GuildID       string    `bson:"guild_id"`
	BaseChannelID string    `bson:"base_channel_id"`
	CreatedAt     time.Time `bson:"created_at"`
	ExpiresAt     time.Time `bson:"expires_at"`
}

func toTempChannelDoc(tc domain.TempChannel, ttl time.Duration) tempChannelDoc {
	created := tc.CreatedAt.UTC()
	return tempChannelDoc{
		ChannelID:     tc.ChannelID,
		OwnerUserID:   tc.OwnerUserID,
		GuildID:       tc.GuildID,
		BaseChannelID: tc.BaseChannelID,
		CreatedAt:     created,
		ExpiresAt:     created.Add(ttl),
	}
}
