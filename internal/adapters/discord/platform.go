package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
)

// permisos de la sala: @everyone no entra, el dueño sí, el bot administra.
const (
	ownerAllow = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect |
		discordgo.PermissionVoiceSpeak | discordgo.PermissionVoiceStreamVideo |
		discordgo.PermissionVoiceUseVAD | discordgo.PermissionSendMessages
	botAllow = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect |
		discordgo.PermissionManageChannels | discordgo.PermissionManageRoles |
		discordgo.PermissionSendMessages
)

// Platform implementa service.Platform sobre una sesión de discordgo.
type Platform struct {
	s   *discordgo.Session
	log *zap.Logger
}

var _ service.Platform = (*Platform)(nil)

func NewPlatform(s *discordgo.Session, log *zap.Logger) *Platform {
	if log == nil {
		log = zap.NewNop()
	}
	return &Platform{s: s, log: log.Named("platform")}
}

func (p *Platform) BotUserID() string {
	if p.s.State == nil || p.s.State.User == nil {
		return ""
	}
	return p.s.State.User.ID
}

func roomOverwrites(guildID, ownerID, botID string) []*discordgo.PermissionOverwrite {
	ow := []*discordgo.PermissionOverwrite{
		// el rol @everyone tiene el mismo id que el guild
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionVoiceConnect},
		{ID: ownerID, Type: discordgo.PermissionOverwriteTypeMember, Allow: ownerAllow},
	}
	if botID != "" {
		ow = append(ow, &discordgo.PermissionOverwrite{ID: botID, Type: discordgo.PermissionOverwriteTypeMember, Allow: botAllow})
	}
	return ow
}

func (p *Platform) CreateVoiceChannel(ctx context.Context, spec service.VoiceChannelSpec) (string, error) {
	parentID := ""
	if lobby, err := p.channel(ctx, spec.LobbyChannelID); err == nil {
		parentID = lobby.ParentID
	} else {
		p.log.Warn("lobby lookup failed, creating room without category",
			zap.String("lobby", spec.LobbyChannelID), zap.Error(err))
	}

	ch, err := p.s.GuildChannelCreateComplex(spec.GuildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		UserLimit:            spec.UserLimit,
		ParentID:             parentID,
		PermissionOverwrites: roomOverwrites(spec.GuildID, spec.OwnerUserID, p.BotUserID()),
	}, discordgo.WithContext(ctx), discordgo.WithAuditLogReason("Auto-created payment room"))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (p *Platform) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := p.s.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return err
}

func (p *Platform) MoveMember(ctx context.Context, guildID, userID, channelID string) error {
	var target *string
	if channelID != "" {
		target = &channelID
	}
	return p.s.GuildMemberMove(guildID, userID, target, discordgo.WithContext(ctx))
}

// MemberCount cuenta voice states del cache; el gateway los mantiene al día.
func (p *Platform) MemberCount(_ context.Context, guildID, channelID string) (int, error) {
	g, err := p.s.State.Guild(guildID)
	if err != nil {
		return 0, err
	}
	p.s.State.RLock()
	defer p.s.State.RUnlock()
	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (p *Platform) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	if ch, err := p.s.State.Channel(channelID); err == nil && ch != nil {
		return true, nil
	}
	_, err := p.s.Channel(channelID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if isUnknownChannel(err) {
		return false, nil
	}
	return false, err
}

func isUnknownChannel(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil && rest.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}

func (p *Platform) SendDM(ctx context.Context, userID, content string) error {
	ch, err := p.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = p.s.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return err
}

func (p *Platform) DisplayName(ctx context.Context, guildID, userID string) string {
	m, err := p.s.State.Member(guildID, userID)
	if err != nil || m == nil {
		m, err = p.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	}
	if err != nil || m == nil {
		return userID
	}
	return memberName(m)
}

func memberName(m *discordgo.Member) string {
	if n := strings.TrimSpace(m.Nick); n != "" {
		return n
	}
	if m.User == nil {
		return ""
	}
	if n := strings.TrimSpace(m.User.GlobalName); n != "" {
		return n
	}
	return m.User.Username
}

// channel: cache primero, REST si falta (y lo agrega al cache).
func (p *Platform) channel(ctx context.Context, id string) (*discordgo.Channel, error) {
	if ch, err := p.s.State.Channel(id); err == nil && ch != nil {
		return ch, nil
	}
	ch, err := p.s.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	_ = p.s.State.ChannelAdd(ch)
	return ch, nil
}
