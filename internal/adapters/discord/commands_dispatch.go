// logica de InteractionApplicationCommand: sólo interacción con el usuario,
// el trabajo real lo hacen los servicios.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/app/ratelimit"
	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
	"github.com/jose-valero/upi-rooms-bot/internal/apperr"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	user := userOf(ic)
	if user == nil {
		return
	}
	log := r.log.With(zap.String("cmd", cmd.Name), zap.String("user", user.ID), zap.String("guild", ic.GuildID))
	log.Info("slash command")
	defer r.step("cmd." + cmd.Name)()

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.ErrorLogged()
			log.Error("panic in slash command", zap.Any("recover", rec))
			r.replyEphemeral(ic, "❌ An unexpected error occurred. Please try again later.")
		}
	}()

	_ = r.deferEphemeral(ic)

	if ok, retry := r.limiter.TryAcquire(ratelimit.Key(user.ID, cmd.Name)); !ok {
		log.Debug("rate limited", zap.Duration("retry", retry))
		r.replyEmbed(ic, rateLimitedEmbed(retry))
		return
	}
	if ownerCommands[cmd.Name] && !r.requireOwner(ic) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch cmd.Name {
	case cmdSetup:
		r.cmdSetup(ctx, ic, user, log)
	case cmdMyUPI:
		r.cmdMyUPI(ctx, ic, user, log)
	case cmdDeleteUPI:
		r.cmdDeleteUPI(ctx, ic, user, log)
	case cmdUserAnalytics:
		r.cmdUserAnalytics(ctx, ic, user, log)
	case cmdPing:
		r.replyEphemeral(ic, fmt.Sprintf("🏓 Pong! `%dms`", s.HeartbeatLatency().Milliseconds()))
	case cmdBotStats:
		r.cmdBotStats(ctx, ic, log)
	case cmdTempChannels:
		r.cmdTempChannels(ctx, ic)
	case cmdCleanup:
		r.cmdCleanup(ctx, ic, log)
	case cmdBroadcast:
		r.cmdBroadcast(ctx, ic, log)
	default:
		r.replyEphemeral(ic, "❓ Unknown command.")
		return
	}
	r.metrics.CommandProcessed()
}

// fail: errores de validación/not found van tal cual; el resto se loguea y es genérico.
func (r *Router) fail(ic *discordgo.InteractionCreate, log *zap.Logger, err error) {
	if apperr.IsValidation(err) || apperr.IsNotFound(err) {
		log.Debug("rejected", zap.Error(err))
	} else {
		r.metrics.ErrorLogged()
		log.Error("command failed", zap.Error(err))
	}
	r.replyEphemeral(ic, "❌ "+apperr.UserMessage(err))
}

func (r *Router) cmdSetup(ctx context.Context, ic *discordgo.InteractionCreate, user *discordgo.User, log *zap.Logger) {
	if on, remaining := r.cooldowns.Check(user.ID, cmdSetup, r.cfg.CommandCooldown); on {
		r.replyEmbed(ic, cooldownEmbed(remaining))
		return
	}
	if e, ok := r.voiceRoomAccess(ic, user.ID); !ok {
		r.replyEmbed(ic, e)
		return
	}

	upiID, _ := optStr(ic, "upi_id")
	name, _ := optStr(ic, "name")
	note, _ := optStr(ic, "note")
	color, _ := optStr(ic, "color")
	amount, _ := optFloat(ic, "amount")

	res, err := r.payments.Setup(ctx, service.SetupRequest{
		UserID:      user.ID,
		GuildID:     ic.GuildID,
		UPIID:       upiID,
		Name:        name,
		DisplayName: displayNameOf(ic),
		Amount:      amount,
		Note:        note,
		Color:       color,
		AvatarURL:   avatarURLOf(user),
	})
	if apperr.IsValidation(err) {
		log.Debug("setup rejected", zap.Error(err))
		r.replyEmbed(ic, invalidInputEmbed(apperr.UserMessage(err)))
		return
	}
	// pasó la validación: el intento consume el cooldown
	r.cooldowns.Set(user.ID, cmdSetup)
	if err != nil {
		r.metrics.ErrorLogged()
		log.Error("setup failed", zap.Error(err))
		r.replyEmbed(ic, failureEmbed())
		return
	}
	r.replyPNG(ic, setupEmbed(res, user), qrFileName, res.PNG)
}

func (r *Router) cmdMyUPI(ctx context.Context, ic *discordgo.InteractionCreate, user *discordgo.User, log *zap.Logger) {
	view, err := r.payments.Profile(ctx, user.ID)
	if apperr.IsNotFound(err) {
		r.replyEmbed(ic, noProfileEmbed())
		return
	}
	if err != nil {
		r.metrics.ErrorLogged()
		log.Error("load profile", zap.Error(err))
		r.replyEphemeral(ic, "❌ Failed to load profile.")
		return
	}
	e := profileEmbed(view)
	if u := avatarURLOf(user); u != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: u}
	}
	r.replyEmbed(ic, e)
}

func (r *Router) cmdDeleteUPI(ctx context.Context, ic *discordgo.InteractionCreate, user *discordgo.User, log *zap.Logger) {
	if confirm, _ := optBool(ic, "confirm"); !confirm {
		e, row := deleteConfirmEmbed()
		r.replyEmbed(ic, e, row)
		return
	}
	existed, err := r.payments.Delete(ctx, user.ID)
	if err != nil {
		r.metrics.ErrorLogged()
		log.Error("delete profile", zap.Error(err))
		r.replyEphemeral(ic, "❌ Failed to delete data.")
		return
	}
	r.replyEmbed(ic, deletedEmbed(existed))
}

func (r *Router) cmdUserAnalytics(ctx context.Context, ic *discordgo.InteractionCreate, user *discordgo.User, log *zap.Logger) {
	if !r.analytics.Enabled() {
		r.replyEphemeral(ic, "📊 Analytics are disabled on this bot.")
		return
	}
	d, _ := optInt(ic, "days")
	days := clampDays(d)
	counts, err := r.analytics.UserSummary(ctx, user.ID, days)
	if err != nil {
		r.metrics.ErrorLogged()
		log.Error("user analytics", zap.Error(err))
		r.replyEphemeral(ic, "❌ Failed to load analytics.")
		return
	}
	if len(counts) == 0 {
		r.replyEphemeral(ic, "No analytics data found for the selected period.")
		return
	}
	r.replyEmbed(ic, analyticsEmbed(days, counts))
}

func (r *Router) cmdBotStats(ctx context.Context, ic *discordgo.InteractionCreate, log *zap.Logger) {
	m := r.metrics.Snapshot()
	b := botStats{Uptime: m.Uptime, Metrics: m}

	r.s.State.RLock()
	b.Servers = len(r.s.State.Guilds)
	for _, g := range r.s.State.Guilds {
		b.Users += g.MemberCount
	}
	r.s.State.RUnlock()

	rooms := r.rooms.Tracked()
	b.TempRooms = len(rooms)
	if n, err := r.rooms.LoggedCount(ctx); err != nil {
		log.Warn("temp channel log count", zap.Error(err))
		b.LoggedRooms = -1
	} else {
		b.LoggedRooms = n
	}
	for _, tc := range rooms {
		if n, err := r.platform.MemberCount(ctx, tc.GuildID, tc.ChannelID); err == nil {
			b.VoiceUsers += n
		}
	}

	gs, err := r.payments.GlobalStats(ctx)
	if err != nil {
		log.Warn("global stats", zap.Error(err))
		b.StatsFailed = true
	} else {
		b.Records = gs.TotalUsers
		b.QRTotal = gs.TotalQRGenerated
		b.DatabaseMB = gs.DatabaseSizeMB
	}
	r.replyEmbed(ic, botStatsEmbed(b))
}

func (r *Router) cmdTempChannels(ctx context.Context, ic *discordgo.InteractionCreate) {
	rooms := r.rooms.Tracked()
	if len(rooms) == 0 {
		r.replyEphemeral(ic, "📭 No temporary channels active.")
		return
	}
	rows := make([]roomRow, 0, len(rooms))
	for _, tc := range rooms {
		row := roomRow{Room: tc, Name: tc.ChannelID, Guild: tc.GuildID}
		if ch, err := r.s.State.Channel(tc.ChannelID); err == nil {
			row.Name = ch.Name
		}
		if g, err := r.s.State.Guild(tc.GuildID); err == nil {
			row.Guild = g.Name
		}
		row.Users, _ = r.platform.MemberCount(ctx, tc.GuildID, tc.ChannelID)
		rows = append(rows, row)
	}
	r.replyEmbed(ic, tempChannelsEmbed(rows, time.Now()))
}

func (r *Router) cmdCleanup(ctx context.Context, ic *discordgo.InteractionCreate, log *zap.Logger) {
	n, err := r.rooms.Cleanup(ctx, "")
	if err != nil {
		log.Warn("cleanup interrupted", zap.Int("deleted", n), zap.Error(err))
	}
	// cambios hechos a mano en la base se ven sin esperar el TTL
	r.payments.ClearCache("")
	r.replyEphemeral(ic, fmt.Sprintf("🧹 Cleaned up %d empty temporary channels and cleared the profile cache.", n))
}

func (r *Router) cmdBroadcast(ctx context.Context, ic *discordgo.InteractionCreate, log *zap.Logger) {
	msg, _ := optStr(ic, "message")
	text := fmt.Sprintf("📢 **Broadcast from %s:** %s", displayNameOf(ic), msg)

	sent := 0
	for _, tc := range r.rooms.Tracked() {
		if n, err := r.platform.MemberCount(ctx, tc.GuildID, tc.ChannelID); err != nil || n == 0 {
			continue
		}
		if _, err := r.s.ChannelMessageSend(tc.ChannelID, text, discordgo.WithContext(ctx)); err != nil {
			log.Warn("broadcast", zap.String("channel", tc.ChannelID), zap.Error(err))
			continue
		}
		sent++
	}
	r.replyEphemeral(ic, fmt.Sprintf("📢 Message sent to %d channels.", sent))
}
