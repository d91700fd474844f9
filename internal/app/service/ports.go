package service

import (
	"context"
	"time"

	"github.com/jose-valero/upi-rooms-bot/internal/app/qr"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

// VoiceChannelSpec: lo que necesita la plataforma para crear una sala de pago.
// La categoría sale del canal lobby.
type VoiceChannelSpec struct {
	GuildID        string
	LobbyChannelID string
	OwnerUserID    string
	Name           string
	UserLimit      int
}

// Lo implementa internal/adapters/discord.Platform
type Platform interface {
	BotUserID() string
	CreateVoiceChannel(ctx context.Context, spec VoiceChannelSpec) (channelID string, err error)
	DeleteChannel(ctx context.Context, channelID string) error
	// MoveMember con channelID == "" desconecta al usuario de voz.
	MoveMember(ctx context.Context, guildID, userID, channelID string) error
	MemberCount(ctx context.Context, guildID, channelID string) (int, error)
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	SendDM(ctx context.Context, userID, content string) error
	DisplayName(ctx context.Context, guildID, userID string) string
}

// Lo implementan internal/infra/storage.ProfileRepo y internal/infra/mongostore.ProfileRepo
type ProfileRepo interface {
	Get(ctx context.Context, userID string) (domain.UPIProfile, error)
	Upsert(ctx context.Context, p domain.UPIProfile) error
	Delete(ctx context.Context, userID string) (bool, error)
	SoftDelete(ctx context.Context, userID string, at time.Time) (bool, error)
	CountActive(ctx context.Context) (int64, error)
}

type AnalyticsRepo interface {
	Insert(ctx context.Context, e domain.AnalyticsEvent) error
	// Count con userID == "" cuenta todos los usuarios.
	Count(ctx context.Context, eventType, userID string) (int64, error)
	CountByType(ctx context.Context, userID string, since time.Time) (map[string]int64, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// TempChannelLog es sólo auditoría: nunca se lee para decidir el ciclo de vida.
type TempChannelLog interface {
	Record(ctx context.Context, tc domain.TempChannel) error
	Remove(ctx context.Context, channelIDs ...string) error
	Count(ctx context.Context) (int64, error)
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
	SizeMB(ctx context.Context) (float64, error)
}

// Lo implementa internal/infra/crypto.Cipher
type Cipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(enc string) (string, error)
}

// Lo implementa internal/app/qr.Generator
type QRRenderer interface {
	Generate(ctx context.Context, p qr.Payment, opt qr.Options) ([]byte, error)
}
