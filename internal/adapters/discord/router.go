package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/app/ratelimit"
	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

const (
	commandTimeout   = 12 * time.Second
	voiceEventBudget = 30 * time.Second
)

// Intents que necesita el bot: guilds, miembros y voice states.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildVoiceStates

type Config struct {
	OwnerID         string
	Activity        string
	CommandCooldown time.Duration // /setup
	// GuildID vacío registra los comandos globalmente.
	GuildID string
}

type Deps struct {
	Payments  *service.PaymentService
	Rooms     *service.LifecycleManager
	Analytics *service.Analytics
	Metrics   *service.Metrics
	Limiter   *ratelimit.Limiter
	Cooldowns *ratelimit.Cooldowns
}

type Router struct {
	s        *discordgo.Session
	platform *Platform
	cfg      Config
	log      *zap.Logger

	payments  *service.PaymentService
	rooms     *service.LifecycleManager
	analytics *service.Analytics
	metrics   *service.Metrics
	limiter   *ratelimit.Limiter
	cooldowns *ratelimit.Cooldowns
	clicks    *clickGuard

	// guilds conocidos al READY, para no contar como join los GUILD_CREATE del arranque
	readyGuilds sync.Map
}

func NewRouter(s *discordgo.Session, cfg Config, d Deps, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.CommandCooldown <= 0 {
		cfg.CommandCooldown = 20 * time.Second
	}
	if cfg.Activity == "" {
		cfg.Activity = "Payment Channels 24/7"
	}
	return &Router{
		s:         s,
		platform:  NewPlatform(s, log),
		cfg:       cfg,
		log:       log.Named("discord"),
		payments:  d.Payments,
		rooms:     d.Rooms,
		analytics: d.Analytics,
		metrics:   d.Metrics,
		limiter:   d.Limiter,
		cooldowns: d.Cooldowns,
		clicks:    newClickGuard(time.Second),
	}
}

// Register crea/actualiza los slash commands (bulk overwrite).
func (r *Router) Register() error {
	appID := r.s.State.User.ID
	cmds, err := r.s.ApplicationCommandBulkOverwrite(appID, r.cfg.GuildID, Commands)
	if err != nil {
		return err
	}
	r.log.Info("🔄 slash commands synced", zap.Int("count", len(cmds)), zap.String("guild", r.cfg.GuildID))
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(r.onReady)
	r.s.AddHandler(r.onGuildCreate)
	r.s.AddHandler(r.onGuildDelete)
	r.s.AddHandler(r.onVoiceStateUpdate)
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})
}

func (r *Router) onReady(s *discordgo.Session, ev *discordgo.Ready) {
	for _, g := range ev.Guilds {
		r.readyGuilds.Store(g.ID, struct{}{})
	}
	r.log.Info("🤖 bot ready",
		zap.String("user", ev.User.String()),
		zap.String("id", ev.User.ID),
		zap.Int("guilds", len(ev.Guilds)))

	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status:     string(discordgo.StatusDoNotDisturb),
		Activities: []*discordgo.Activity{{Name: r.cfg.Activity, Type: discordgo.ActivityTypeWatching}},
	})
	if err != nil {
		r.log.Warn("set presence", zap.Error(err))
	}

	for _, id := range r.rooms.Lobbies() {
		ch, err := s.State.Channel(id)
		if err != nil {
			// el canal llega con GUILD_CREATE; puede no estar todavía
			r.log.Info("🔊 monitoring lobby", zap.String("channel", id))
			continue
		}
		r.log.Info("🔊 monitoring lobby", zap.String("channel", id), zap.String("name", ch.Name), zap.String("guild", ch.GuildID))
	}
}

func (r *Router) onGuildCreate(_ *discordgo.Session, ev *discordgo.GuildCreate) {
	if _, known := r.readyGuilds.LoadOrStore(ev.ID, struct{}{}); known {
		return
	}
	r.log.Info("📥 joined guild", zap.String("guild", ev.Name), zap.String("id", ev.ID), zap.Int("members", ev.MemberCount))
	r.analytics.Log(context.Background(), domain.EventGuildJoin, "", ev.ID, map[string]any{"guild_id": ev.ID})
}

func (r *Router) onGuildDelete(_ *discordgo.Session, ev *discordgo.GuildDelete) {
	// outage, no salida
	if ev.Unavailable {
		return
	}
	r.readyGuilds.Delete(ev.ID)
	r.log.Info("📤 left guild", zap.String("id", ev.ID))
	r.analytics.Log(context.Background(), domain.EventGuildLeave, "", ev.ID, map[string]any{"guild_id": ev.ID})
}

func (r *Router) onVoiceStateUpdate(_ *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	ev := toVoiceStateChange(vs)
	if ev.UserID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), voiceEventBudget)
	defer cancel()
	r.rooms.HandleVoiceState(ctx, ev)
}

func toVoiceStateChange(vs *discordgo.VoiceStateUpdate) service.VoiceStateChange {
	if vs == nil || vs.VoiceState == nil {
		return service.VoiceStateChange{}
	}
	ev := service.VoiceStateChange{
		UserID:         vs.UserID,
		GuildID:        vs.GuildID,
		AfterChannelID: vs.ChannelID,
	}
	if vs.BeforeUpdate != nil {
		ev.BeforeChannelID = vs.BeforeUpdate.ChannelID
	}
	if vs.Member != nil && vs.Member.User != nil {
		ev.IsBot = vs.Member.User.Bot
	}
	return ev
}
