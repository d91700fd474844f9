package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/app/qr"
	"github.com/jose-valero/upi-rooms-bot/internal/app/upi"
	"github.com/jose-valero/upi-rooms-bot/internal/apperr"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

const (
	MaxNameLength = 50
	MaxNoteLength = 100
	MaxAmount     = 999999.99
)

type SetupRequest struct {
	UserID      string
	GuildID     string
	UPIID       string
	Name        string // "" => DisplayName
	DisplayName string
	Amount      *float64
	Note        string
	Color       string // "#RRGGBB" opcional, color de los módulos
	AvatarURL   string
}

type SetupResult struct {
	PNG      []byte
	URI      string
	UPIID    string
	Warnings []string
	Name     string
	Amount   float64
	Note     string
}

// ProfileView junta perfil descifrado y stats para /myupi.
type ProfileView struct {
	Profile *Profile
	Stats   domain.UserStats
}

type PaymentService struct {
	store     *CredentialStore
	qr        QRRenderer
	analytics *Analytics
	metrics   *Metrics
	encrypt   bool
	log       *zap.Logger
}

func NewPaymentService(store *CredentialStore, renderer QRRenderer, analytics *Analytics, metrics *Metrics, encrypt bool, log *zap.Logger) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if analytics == nil {
		analytics = NewAnalytics(nil, false, log)
	}
	return &PaymentService{store: store, qr: renderer, analytics: analytics, metrics: metrics, encrypt: encrypt, log: log.Named("payment")}
}

// Setup valida todo antes de guardar o generar nada.
func (s *PaymentService) Setup(ctx context.Context, req SetupRequest) (*SetupResult, error) {
	upiID := strings.TrimSpace(req.UPIID)
	v := upi.Validate(upiID)
	if !v.Valid {
		return nil, apperr.InvalidArg(v.Error)
	}
	for _, w := range v.Warnings {
		s.log.Debug("upi warning", zap.String("user", req.UserID), zap.String("warning", w))
	}

	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, apperr.InvalidArgf("Name too long! Maximum %d characters.", MaxNameLength)
	}
	if name == "" {
		name = strings.TrimSpace(req.DisplayName)
	}

	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
		if amount <= 0 {
			return nil, apperr.InvalidArg("Amount must be greater than 0!")
		}
		if amount > MaxAmount {
			return nil, apperr.InvalidArg("Amount too large! Maximum ₹9,99,999.99")
		}
	}

	note := strings.TrimSpace(req.Note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return nil, apperr.InvalidArgf("Note too long! Maximum %d characters.", MaxNoteLength)
	}

	var opt qr.Options
	if req.Color != "" {
		fg, err := qr.ParseHexColor(req.Color)
		if err != nil {
			return nil, apperr.InvalidArg("Invalid color format! Use #RRGGBB")
		}
		opt.Foreground = fg
	}
	opt.AvatarURL = req.AvatarURL

	if _, err := s.store.Save(ctx, req.UserID, upiID, name, note, s.encrypt); err != nil {
		s.metrics.ErrorLogged()
		return nil, err
	}

	pay := qr.Payment{UPIID: upiID, Name: name, Amount: amount, Note: note}
	png, err := s.qr.Generate(ctx, pay, opt)
	if err != nil {
		s.metrics.ErrorLogged()
		s.log.Error("qr generation", zap.String("user", req.UserID), zap.Error(err))
		return nil, apperr.Internal("failed to generate QR", err)
	}

	s.metrics.QRGenerated()
	s.analytics.Log(ctx, domain.EventQRGenerated, req.UserID, req.GuildID, map[string]any{
		"has_amount":   amount > 0,
		"has_note":     note != "",
		"custom_color": req.Color != "",
	})
	s.log.Info("qr generated", zap.String("user", req.UserID), zap.String("guild", req.GuildID))

	return &SetupResult{
		PNG:      png,
		URI:      qr.BuildPaymentURI(pay),
		UPIID:    upiID,
		Warnings: v.Warnings,
		Name:     name,
		Amount:   amount,
		Note:     note,
	}, nil
}

func (s *PaymentService) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	st, err := s.store.UserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !st.Found {
		return nil, apperr.NotFound("No UPI details found. Use `/setup` to create your UPI profile.")
	}
	p, err := s.store.Get(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: p, Stats: st}, nil
}

// Delete siempre es permanente desde /deleteupi.
func (s *PaymentService) Delete(ctx context.Context, userID string) (bool, error) {
	return s.store.Delete(ctx, userID, true)
}

// ClearCache descarta perfiles cacheados ("" = todos); lo usa /cleanup.
func (s *PaymentService) ClearCache(userID string) { s.store.ClearCache(userID) }

func (s *PaymentService) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	return s.store.GlobalStats(ctx)
}
