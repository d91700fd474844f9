package storage

import (
	"context"
	"database/sql"
	"time"

	pq "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

// TempChannelTTL: las filas de auditoría vencen solas (janitor / job analytics).
const TempChannelTTL = 2 * time.Hour

// TempChannelRepo: log de auditoría de salas creadas. Nunca decide el ciclo de vida.
type TempChannelRepo struct{ db *sql.DB }

func NewTempChannelRepo(db *sql.DB) *TempChannelRepo { return &TempChannelRepo{db: db} }

func (r *TempChannelRepo) Record(ctx context.Context, tc domain.TempChannel) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO temp_channels (channel_id, owner_user_id, guild_id, base_channel_id, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (channel_id) DO UPDATE SET
  owner_user_id   = EXCLUDED.owner_user_id,
  guild_id        = EXCLUDED.guild_id,
  base_channel_id = EXCLUDED.base_channel_id,
  created_at      = EXCLUDED.created_at,
  expires_at      = EXCLUDED.expires_at
`, tc.ChannelID, tc.OwnerUserID, tc.GuildID, tc.BaseChannelID, tc.CreatedAt, tc.CreatedAt.Add(TempChannelTTL))
	return errors.Wrap(err, "TempChannelRepo.Record")
}

func (r *TempChannelRepo) Remove(ctx context.Context, channelIDs ...string) error {
	if len(channelIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM temp_channels WHERE channel_id = ANY($1)`, pq.Array(channelIDs))
	return errors.Wrap(err, "TempChannelRepo.Remove")
}

func (r *TempChannelRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM temp_channels WHERE expires_at > NOW()`).Scan(&n)
	return n, errors.Wrap(err, "TempChannelRepo.Count")
}

func (r *TempChannelRepo) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM temp_channels WHERE expires_at < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "TempChannelRepo.PruneBefore")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
