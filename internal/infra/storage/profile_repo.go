package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Upsert por user_id. El flag deleted sólo se escribe al insertar: volver a
// guardar no revive un perfil soft-deleted.
func (r *ProfileRepo) Upsert(ctx context.Context, p domain.UPIProfile) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO upi_profiles
  (user_id, upi_id, name, note, encrypted, usage_count, created_at, last_updated, deleted, deleted_at)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,NULL)
ON CONFLICT (user_id) DO UPDATE SET
  upi_id       = EXCLUDED.upi_id,
  name         = EXCLUDED.name,
  note         = EXCLUDED.note,
  encrypted    = EXCLUDED.encrypted,
  usage_count  = EXCLUDED.usage_count,
  created_at   = EXCLUDED.created_at,
  last_updated = EXCLUDED.last_updated
`, p.UserID, p.UPIID, p.Name, p.Note, p.Encrypted, p.UsageCount, p.CreatedAt, p.LastUpdated)
	return errors.Wrap(err, "ProfileRepo.Upsert")
}

// Get no filtra los soft-deleted.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (domain.UPIProfile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, upi_id, name, note, encrypted, usage_count, created_at, last_updated, deleted, deleted_at
FROM upi_profiles
WHERE user_id = $1
`, userID)
	var p domain.UPIProfile
	err := row.Scan(&p.UserID, &p.UPIID, &p.Name, &p.Note, &p.Encrypted, &p.UsageCount,
		&p.CreatedAt, &p.LastUpdated, &p.Deleted, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return domain.UPIProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UPIProfile{}, errors.Wrap(err, "ProfileRepo.Get")
	}
	return p, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM upi_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return false, errors.Wrap(err, "ProfileRepo.Delete")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ProfileRepo) SoftDelete(ctx context.Context, userID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE upi_profiles
   SET deleted = TRUE,
       deleted_at = $2
 WHERE user_id = $1
`, userID, at)
	if err != nil {
		return false, errors.Wrap(err, "ProfileRepo.SoftDelete")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ProfileRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM upi_profiles WHERE NOT deleted`).Scan(&n)
	return n, errors.Wrap(err, "ProfileRepo.CountActive")
}
