package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

type AnalyticsRepo struct{ db *sql.DB }

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

func (r *AnalyticsRepo) Insert(ctx context.Context, e domain.AnalyticsEvent) error {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "AnalyticsRepo.Insert: marshal data")
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO analytics_events (id, event_type, ts, user_id, guild_id, data)
VALUES ($1, $2, $3, NULLIF($4::text, ''), NULLIF($5::text, ''), $6::jsonb)
`, e.ID, e.EventType, e.Timestamp, e.UserID, e.GuildID, string(raw))
	return errors.Wrap(err, "AnalyticsRepo.Insert")
}

func (r *AnalyticsRepo) Count(ctx context.Context, eventType, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
  FROM analytics_events
 WHERE event_type = $1
   AND ($2::text = '' OR user_id = $2::text)
`, eventType, userID).Scan(&n)
	return n, errors.Wrap(err, "AnalyticsRepo.Count")
}

func (r *AnalyticsRepo) CountByType(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT event_type, COUNT(*)
  FROM analytics_events
 WHERE user_id = $1 AND ts >= $2
 GROUP BY event_type
`, userID, since)
	if err != nil {
		return nil, errors.Wrap(err, "AnalyticsRepo.CountByType")
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var (
			t string
			n int64
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, errors.Wrap(err, "AnalyticsRepo.CountByType: scan")
		}
		out[t] = n
	}
	return out, errors.Wrap(rows.Err(), "AnalyticsRepo.CountByType: rows")
}

func (r *AnalyticsRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analytics_events WHERE ts < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "AnalyticsRepo.DeleteBefore")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
