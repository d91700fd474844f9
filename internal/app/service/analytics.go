package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

// Analytics es best effort: un error acá nunca corta el flujo del usuario.
type Analytics struct {
	repo    AnalyticsRepo
	enabled bool
	log     *zap.Logger
	now     func() time.Time
}

func NewAnalytics(repo AnalyticsRepo, enabled bool, log *zap.Logger) *Analytics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analytics{repo: repo, enabled: enabled && repo != nil, log: log.Named("analytics"), now: time.Now}
}

func (a *Analytics) Enabled() bool { return a.enabled }

func (a *Analytics) Log(ctx context.Context, eventType, userID, guildID string, data map[string]any) {
	if !a.enabled {
		return
	}
	ev := domain.AnalyticsEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Timestamp: a.now().UTC(),
		UserID:    userID,
		GuildID:   guildID,
		Data:      data,
	}
	if err := a.repo.Insert(ctx, ev); err != nil {
		a.log.Warn("insert event", zap.String("type", eventType), zap.Error(err))
	}
}

// UserSummary: eventos por tipo en los últimos days días.
func (a *Analytics) UserSummary(ctx context.Context, userID string, days int) (map[string]int64, error) {
	if !a.enabled {
		return map[string]int64{}, nil
	}
	if days <= 0 {
		days = 7
	}
	since := a.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	return a.repo.CountByType(ctx, userID, since)
}

// Snapshot guarda las métricas del proceso como evento bot_metrics.
func (a *Analytics) Snapshot(ctx context.Context, m MetricsSnapshot, extra map[string]any) {
	data := map[string]any{
		"commands_processed": m.CommandsProcessed,
		"qr_generated":       m.QRGenerated,
		"errors_logged":      m.ErrorsLogged,
		"uptime_seconds":     int64(m.Uptime.Seconds()),
	}
	for k, v := range extra {
		data[k] = v
	}
	a.Log(ctx, domain.EventBotMetrics, "", "", data)
}

// Prune borra eventos más viejos que retention.
func (a *Analytics) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if a.repo == nil || retention <= 0 {
		return 0, nil
	}
	return a.repo.DeleteBefore(ctx, a.now().UTC().Add(-retention))
}
