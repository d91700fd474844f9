package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/app/ratelimit"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

const (
	joinCooldownCommand = "voice_join"
	platformOpTimeout   = 15 * time.Second
)

// VoiceStateChange es un VoiceStateUpdate ya traducido por el adapter.
// Channel ids vacíos = no estaba / no está en voz.
type VoiceStateChange struct {
	UserID          string
	GuildID         string
	BeforeChannelID string
	AfterChannelID  string
	IsBot           bool
}

type LifecycleConfig struct {
	LobbyChannelIDs []string
	Cooldown        time.Duration // entre creaciones por usuario; 0 = sin cooldown
	MaxPerUser      int           // salas ocupadas simultáneas por dueño
	MaxAge          time.Duration
	Grace           time.Duration // espera antes de borrar una sala vacía
	UserLimit       int
	Now             func() time.Time
}

func (c *LifecycleConfig) defaults() {
	// 0 = sin cooldown; el default de 30s lo pone config
	if c.Cooldown < 0 {
		c.Cooldown = 0
	}
	if c.MaxPerUser <= 0 {
		c.MaxPerUser = 3
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 2 * time.Hour
	}
	if c.Grace <= 0 {
		c.Grace = 5 * time.Second
	}
	if c.UserLimit <= 0 {
		c.UserLimit = 2
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

type SweepResult struct {
	Expired int // borrados por edad
	Healed  int // ya no existían en la plataforma
	Failed  int
}

// LifecycleManager crea, sigue y borra las salas de pago.
// Estados: NONE -> CREATED -> (EMPTY_PENDING_DELETE | DELETED).
type LifecycleManager struct {
	p         Platform
	cfg       LifecycleConfig
	lobbies   map[string]struct{}
	tracked   *TrackingStore
	cooldowns *ratelimit.Cooldowns
	audit     TempChannelLog
	analytics *Analytics
	log       *zap.Logger

	userLocks *keyedMutex
	chanLocks *keyedMutex
	pending   sync.WaitGroup
}

func NewLifecycleManager(p Platform, cfg LifecycleConfig, audit TempChannelLog, analytics *Analytics, log *zap.Logger) *LifecycleManager {
	cfg.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	if analytics == nil {
		analytics = NewAnalytics(nil, false, log)
	}
	lobbies := make(map[string]struct{}, len(cfg.LobbyChannelIDs))
	for _, id := range cfg.LobbyChannelIDs {
		lobbies[id] = struct{}{}
	}
	return &LifecycleManager{
		p:         p,
		cfg:       cfg,
		lobbies:   lobbies,
		tracked:   NewTrackingStore(),
		cooldowns: ratelimit.NewCooldowns(0, cfg.Cooldown).WithClock(cfg.Now),
		audit:     audit,
		analytics: analytics,
		log:       log.Named("rooms"),
		userLocks: newKeyedMutex(),
		chanLocks: newKeyedMutex(),
	}
}

func (m *LifecycleManager) IsLobby(channelID string) bool {
	_, ok := m.lobbies[channelID]
	return ok
}

func (m *LifecycleManager) Lobbies() []string { return m.cfg.LobbyChannelIDs }

// HandleVoiceState nunca propaga errores ni panics: todo se loguea.
func (m *LifecycleManager) HandleVoiceState(ctx context.Context, ev VoiceStateChange) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in voice handler", zap.Any("recover", r), zap.String("user", ev.UserID))
		}
	}()

	if ev.IsBot || ev.UserID == m.p.BotUserID() {
		return
	}
	// mute/deafen/stream: mismo canal
	if ev.BeforeChannelID == ev.AfterChannelID {
		return
	}

	if ev.AfterChannelID != "" && m.IsLobby(ev.AfterChannelID) {
		m.handleJoin(ctx, ev)
	}
	if ev.BeforeChannelID != "" {
		if _, ok := m.tracked.Get(ev.BeforeChannelID); ok {
			m.handleLeave(ctx, ev)
		}
	}
}

func (m *LifecycleManager) handleJoin(ctx context.Context, ev VoiceStateChange) {
	unlock := m.userLocks.Lock(ev.UserID)
	defer unlock()

	if on, remaining := m.onCooldown(ev.UserID); on {
		m.log.Debug("join on cooldown", zap.String("user", ev.UserID), zap.Duration("remaining", remaining))
		m.rejectJoin(ctx, ev, fmt.Sprintf("⏱️ Please wait %ds before creating another payment room!", ceilSeconds(remaining)))
		return
	}

	if n := m.activeOwned(ctx, ev.UserID, ev.GuildID); n >= m.cfg.MaxPerUser {
		m.log.Info("join over cap", zap.String("user", ev.UserID), zap.Int("active", n))
		m.rejectJoin(ctx, ev, fmt.Sprintf("❌ You've reached the maximum of %d active payment rooms!", m.cfg.MaxPerUser))
		return
	}

	display := m.p.DisplayName(ctx, ev.GuildID, ev.UserID)
	chID, err := m.p.CreateVoiceChannel(ctx, VoiceChannelSpec{
		GuildID:        ev.GuildID,
		LobbyChannelID: ev.AfterChannelID,
		OwnerUserID:    ev.UserID,
		Name:           RoomName(display),
		UserLimit:      m.cfg.UserLimit,
	})
	if err != nil {
		m.log.Error("create room", zap.String("user", ev.UserID), zap.Error(err))
		m.dm(ctx, ev.UserID, "❌ Failed to create your payment room. Please try again.")
		return
	}

	tc := domain.TempChannel{
		ChannelID:     chID,
		OwnerUserID:   ev.UserID,
		GuildID:       ev.GuildID,
		BaseChannelID: ev.AfterChannelID,
		CreatedAt:     m.cfg.Now().UTC(),
	}
	// se registra antes de mover: si sale enseguida, el leave ya lo encuentra
	m.tracked.Add(tc)

	if err := m.p.MoveMember(ctx, ev.GuildID, ev.UserID, chID); err != nil {
		m.log.Warn("move into room failed, deleting orphan", zap.String("user", ev.UserID), zap.String("channel", chID), zap.Error(err))
		m.tracked.Remove(chID)
		if err := m.p.DeleteChannel(ctx, chID); err != nil {
			m.log.Error("delete orphan room", zap.String("channel", chID), zap.Error(err))
		}
		return
	}

	if m.cfg.Cooldown > 0 {
		m.cooldowns.Set(ev.UserID, joinCooldownCommand)
	}
	if m.audit != nil {
		if err := m.audit.Record(ctx, tc); err != nil {
			m.log.Warn("audit record", zap.String("channel", chID), zap.Error(err))
		}
	}
	m.analytics.Log(ctx, domain.EventTempChannelCreated, ev.UserID, ev.GuildID, map[string]any{
		"channel_id": chID,
		"lobby_id":   ev.AfterChannelID,
	})
	m.log.Info("room created", zap.String("user", ev.UserID), zap.String("channel", chID))
}

func (m *LifecycleManager) onCooldown(userID string) (bool, time.Duration) {
	if m.cfg.Cooldown <= 0 {
		return false, 0
	}
	return m.cooldowns.Check(userID, joinCooldownCommand, m.cfg.Cooldown)
}

// activeOwned cuenta las salas del usuario que hoy tienen gente.
func (m *LifecycleManager) activeOwned(ctx context.Context, userID, guildID string) int {
	n := 0
	for _, tc := range m.tracked.OwnedBy(userID, guildID) {
		count, err := m.p.MemberCount(ctx, tc.GuildID, tc.ChannelID)
		if err != nil {
			m.log.Debug("member count", zap.String("channel", tc.ChannelID), zap.Error(err))
			continue
		}
		if count > 0 {
			n++
		}
	}
	return n
}

func (m *LifecycleManager) rejectJoin(ctx context.Context, ev VoiceStateChange, msg string) {
	if err := m.p.MoveMember(ctx, ev.GuildID, ev.UserID, ""); err != nil {
		m.log.Warn("disconnect user", zap.String("user", ev.UserID), zap.Error(err))
	}
	m.dm(ctx, ev.UserID, msg)
}

func (m *LifecycleManager) dm(ctx context.Context, userID, msg string) {
	if err := m.p.SendDM(ctx, userID, msg); err != nil {
		m.log.Debug("dm failed", zap.String("user", userID), zap.Error(err))
	}
}

func (m *LifecycleManager) handleLeave(ctx context.Context, ev VoiceStateChange) {
	chID := ev.BeforeChannelID
	n, err := m.p.MemberCount(ctx, ev.GuildID, chID)
	if err != nil {
		m.log.Debug("member count on leave", zap.String("channel", chID), zap.Error(err))
		return
	}
	if n > 0 {
		return
	}

	m.log.Debug("room empty, grace started", zap.String("channel", chID), zap.Duration("grace", m.cfg.Grace))
	m.pending.Add(1)
	time.AfterFunc(m.cfg.Grace, func() {
		defer m.pending.Done()
		m.graceCheck(chID)
	})
}

// graceCheck vuelve a mirar: sólo borra si sigue vacía y sigue trackeada.
func (m *LifecycleManager) graceCheck(channelID string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in grace check", zap.Any("recover", r), zap.String("channel", channelID))
		}
	}()

	unlock := m.chanLocks.Lock(channelID)
	defer unlock()

	tc, ok := m.tracked.Get(channelID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), platformOpTimeout)
	defer cancel()

	n, err := m.p.MemberCount(ctx, tc.GuildID, channelID)
	if err != nil {
		m.log.Debug("member count after grace", zap.String("channel", channelID), zap.Error(err))
		return
	}
	if n > 0 {
		m.log.Debug("room refilled, kept", zap.String("channel", channelID))
		return
	}
	m.deleteTracked(ctx, tc, "empty")
}

// deleteTracked asume el lock del canal tomado.
func (m *LifecycleManager) deleteTracked(ctx context.Context, tc domain.TempChannel, reason string) bool {
	if err := m.p.DeleteChannel(ctx, tc.ChannelID); err != nil {
		exists, xerr := m.p.ChannelExists(ctx, tc.ChannelID)
		if xerr != nil || exists {
			m.log.Warn("delete room", zap.String("channel", tc.ChannelID), zap.String("reason", reason), zap.Error(err))
			return false
		}
		// ya no estaba: se cura igual
	}

	m.tracked.Remove(tc.ChannelID)
	m.removeAudit(ctx, tc.ChannelID)
	m.analytics.Log(ctx, domain.EventTempChannelDeleted, tc.OwnerUserID, tc.GuildID, map[string]any{
		"channel_id":  tc.ChannelID,
		"reason":      reason,
		"age_seconds": int64(tc.Age(m.cfg.Now()).Seconds()),
	})
	m.log.Info("room deleted", zap.String("channel", tc.ChannelID), zap.String("reason", reason))
	return true
}

// Sweep: borra las salas más viejas que MaxAge (ocupadas o no) y suelta las
// que la plataforma ya no tiene.
func (m *LifecycleManager) Sweep(ctx context.Context, now time.Time) SweepResult {
	var res SweepResult
	for _, snap := range m.tracked.Snapshot() {
		if ctx.Err() != nil {
			break
		}
		m.sweepOne(ctx, now, snap.ChannelID, &res)
	}
	if res.Expired+res.Healed+res.Failed > 0 {
		m.log.Info("sweep", zap.Int("expired", res.Expired), zap.Int("healed", res.Healed), zap.Int("failed", res.Failed), zap.Int("tracked", m.tracked.Len()))
	}
	return res
}

func (m *LifecycleManager) sweepOne(ctx context.Context, now time.Time, channelID string, res *SweepResult) {
	unlock := m.chanLocks.Lock(channelID)
	defer unlock()

	tc, ok := m.tracked.Get(channelID)
	if !ok {
		return
	}

	if tc.Age(now) > m.cfg.MaxAge {
		if m.deleteTracked(ctx, tc, "max_age") {
			res.Expired++
		} else {
			res.Failed++
		}
		return
	}

	exists, err := m.p.ChannelExists(ctx, channelID)
	if err != nil {
		m.log.Debug("channel exists", zap.String("channel", channelID), zap.Error(err))
		return
	}
	if !exists {
		m.tracked.Remove(channelID)
		m.removeAudit(ctx, channelID)
		m.log.Debug("drift healed", zap.String("channel", channelID))
		res.Healed++
	}
}

// Cleanup borra las salas vacías del guild (/cleanup). guildID "" = todas.
func (m *LifecycleManager) Cleanup(ctx context.Context, guildID string) (int, error) {
	deleted := 0
	for _, snap := range m.tracked.Snapshot() {
		if guildID != "" && snap.GuildID != guildID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if m.cleanupOne(ctx, snap.ChannelID) {
			deleted++
		}
	}
	return deleted, nil
}

func (m *LifecycleManager) cleanupOne(ctx context.Context, channelID string) bool {
	unlock := m.chanLocks.Lock(channelID)
	defer unlock()

	tc, ok := m.tracked.Get(channelID)
	if !ok {
		return false
	}
	n, err := m.p.MemberCount(ctx, tc.GuildID, channelID)
	if err != nil || n > 0 {
		return false
	}
	return m.deleteTracked(ctx, tc, "admin_cleanup")
}

func (m *LifecycleManager) removeAudit(ctx context.Context, channelID string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Remove(ctx, channelID); err != nil {
		m.log.Warn("audit remove", zap.String("channel", channelID), zap.Error(err))
	}
}

// LoggedCount: salas vivas según el log de auditoría (todas las réplicas, no sólo este proceso).
func (m *LifecycleManager) LoggedCount(ctx context.Context) (int64, error) {
	if m.audit == nil {
		return 0, nil
	}
	return m.audit.Count(ctx)
}

// Tracked devuelve una copia para /tempchannels y /api/temp-channels.
func (m *LifecycleManager) Tracked() []domain.TempChannel { return m.tracked.Snapshot() }

// Owned devuelve el dueño de una sala trackeada.
func (m *LifecycleManager) Owned(channelID string) (string, bool) {
	tc, ok := m.tracked.Get(channelID)
	return tc.OwnerUserID, ok
}

// Wait espera los grace checks pendientes (shutdown y tests).
func (m *LifecycleManager) Wait() { m.pending.Wait() }

func RoomName(display string) string {
	return fmt.Sprintf("💰 %s's Payment", display)
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
