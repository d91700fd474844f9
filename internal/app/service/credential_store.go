package service

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/apperr"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

const (
	profileCacheSize = 10_000
	profileCacheTTL  = 30 * time.Minute
)

// Profile es lo que devuelve Get. Decrypted=false si algún campo pedido
// no se pudo descifrar y quedó tal cual estaba guardado.
type Profile struct {
	domain.UPIProfile
	Decrypted bool
}

type CredentialStore struct {
	profiles  ProfileRepo
	events    AnalyticsRepo
	db        Pinger
	cipher    Cipher
	analytics *Analytics
	cache     *expirable.LRU[string, domain.UPIProfile]
	log       *zap.Logger
	now       func() time.Time
}

func NewCredentialStore(profiles ProfileRepo, events AnalyticsRepo, db Pinger, cipher Cipher, analytics *Analytics, log *zap.Logger) *CredentialStore {
	if log == nil {
		log = zap.NewNop()
	}
	if analytics == nil {
		analytics = NewAnalytics(nil, false, log)
	}
	return &CredentialStore{
		profiles:  profiles,
		events:    events,
		db:        db,
		cipher:    cipher,
		analytics: analytics,
		cache:     expirable.NewLRU[string, domain.UPIProfile](profileCacheSize, nil, profileCacheTTL),
		log:       log.Named("credentials"),
		now:       time.Now,
	}
}

// Save cifra upi_id/name/note si encrypt, conserva created_at y suma usage_count
// respecto del registro anterior. El soft delete previo se conserva tal cual.
func (s *CredentialStore) Save(ctx context.Context, userID, upiID, name, note string, encrypt bool) (domain.UPIProfile, error) {
	now := s.now().UTC()
	p := domain.UPIProfile{
		UserID:      userID,
		UPIID:       upiID,
		Name:        name,
		Note:        note,
		CreatedAt:   now,
		LastUpdated: now,
	}

	if encrypt {
		if s.cipher == nil {
			return domain.UPIProfile{}, apperr.Internal("encryption not configured", nil)
		}
		var err error
		for _, f := range []*string{&p.UPIID, &p.Name, &p.Note} {
			if *f == "" {
				continue
			}
			if *f, err = s.cipher.Encrypt(*f); err != nil {
				return domain.UPIProfile{}, apperr.Internal("encryption failed", err)
			}
		}
		p.Encrypted = true
	}

	prev, err := s.raw(ctx, userID)
	switch {
	case err == nil:
		p.UsageCount = prev.UsageCount + 1
		p.Deleted, p.DeletedAt = prev.Deleted, prev.DeletedAt
		if !prev.CreatedAt.IsZero() {
			p.CreatedAt = prev.CreatedAt
		}
	case !apperr.IsNotFound(err):
		return domain.UPIProfile{}, err
	}

	if err := s.profiles.Upsert(ctx, p); err != nil {
		s.log.Error("upsert profile", zap.String("user", userID), zap.Error(err))
		return domain.UPIProfile{}, apperr.Unavailable("could not save your UPI details", err)
	}
	s.cache.Add(userID, p)

	s.analytics.Log(ctx, domain.EventUPISaved, userID, "", map[string]any{"encrypted": encrypt})
	s.log.Info("profile saved", zap.String("user", userID), zap.Bool("encrypted", encrypt))
	return p, nil
}

// Get devuelve una copia; con decrypt=true intenta descifrar cada campo y
// deja el valor crudo en los que fallan.
func (s *CredentialStore) Get(ctx context.Context, userID string, decrypt bool) (*Profile, error) {
	p, err := s.raw(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &Profile{UPIProfile: p, Decrypted: !p.Encrypted}
	if !decrypt || !p.Encrypted {
		return out, nil
	}

	ok := s.cipher != nil
	if ok {
		for _, f := range []*string{&out.UPIID, &out.Name, &out.Note} {
			if *f == "" {
				continue
			}
			plain, err := s.cipher.Decrypt(*f)
			if err != nil {
				ok = false
				continue
			}
			*f = plain
		}
	}
	if !ok {
		s.log.Warn("profile fields left encrypted", zap.String("user", userID))
	}
	out.Decrypted = ok
	return out, nil
}

// raw: cache -> repo; lo que entra a la cache es lo guardado (cifrado).
func (s *CredentialStore) raw(ctx context.Context, userID string) (domain.UPIProfile, error) {
	if p, ok := s.cache.Get(userID); ok {
		return p, nil
	}
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.UPIProfile{}, apperr.NotFound("No UPI details found. Use `/setup` first.")
	}
	if err != nil {
		return domain.UPIProfile{}, apperr.Unavailable("could not load your UPI details", err)
	}
	s.cache.Add(userID, p)
	return p, nil
}

// Delete: permanent borra la fila; si no, marca deleted/deleted_at.
func (s *CredentialStore) Delete(ctx context.Context, userID string, permanent bool) (bool, error) {
	defer s.cache.Remove(userID)

	var (
		ok  bool
		err error
	)
	if permanent {
		ok, err = s.profiles.Delete(ctx, userID)
	} else {
		ok, err = s.profiles.SoftDelete(ctx, userID, s.now().UTC())
	}
	if err != nil {
		return false, apperr.Unavailable("could not delete your UPI details", err)
	}
	s.log.Info("profile deleted", zap.String("user", userID), zap.Bool("permanent", permanent), zap.Bool("existed", ok))
	return ok, nil
}

func (s *CredentialStore) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	p, err := s.raw(ctx, userID)
	if apperr.IsNotFound(err) {
		return domain.UserStats{Found: false}, nil
	}
	if err != nil {
		return domain.UserStats{}, err
	}

	st := domain.UserStats{
		Found:      true,
		UsageCount: p.UsageCount,
		LastUsed:   p.LastUpdated,
		CreatedAt:  p.CreatedAt,
	}
	if s.events != nil {
		n, err := s.events.Count(ctx, domain.EventQRGenerated, userID)
		if err != nil {
			s.log.Warn("count qr events", zap.String("user", userID), zap.Error(err))
		}
		st.QRGenerated = n
	}
	return st, nil
}

func (s *CredentialStore) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	var (
		gs  domain.GlobalStats
		err error
	)
	if gs.TotalUsers, err = s.profiles.CountActive(ctx); err != nil {
		return gs, apperr.Unavailable("could not load stats", err)
	}
	if s.events != nil {
		if gs.TotalQRGenerated, err = s.events.Count(ctx, domain.EventQRGenerated, ""); err != nil {
			return gs, apperr.Unavailable("could not load stats", err)
		}
		if gs.TotalUPISaved, err = s.events.Count(ctx, domain.EventUPISaved, ""); err != nil {
			return gs, apperr.Unavailable("could not load stats", err)
		}
	}
	if s.db != nil {
		// best effort
		if mb, err := s.db.SizeMB(ctx); err == nil {
			gs.DatabaseSizeMB = mb
		}
	}
	return gs, nil
}

// ClearCache con userID vacío limpia todo.
func (s *CredentialStore) ClearCache(userID string) {
	if userID == "" {
		s.cache.Purge()
	} else {
		s.cache.Remove(userID)
	}
	s.log.Debug("cache cleared", zap.String("user", userID))
}
