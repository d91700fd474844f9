// Package httpapi expone keep-alive, health y un dashboard mínimo de estado.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

type StatsSource interface {
	GlobalStats(ctx context.Context) (domain.GlobalStats, error)
}

type MetricsSource interface {
	Snapshot() service.MetricsSnapshot
}

type RoomSource interface {
	Tracked() []domain.TempChannel
}

type Deps struct {
	Stats     StatsSource
	Metrics   MetricsSource
	Rooms     RoomSource
	DB        service.Pinger
	Dashboard bool
	Token     string
	Now       func() time.Time
}

type Server struct {
	deps Deps
	mux  *http.ServeMux
	log  *zap.Logger
	srv  *http.Server
}

func New(addr string, deps Deps, log *zap.Logger) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{deps: deps, mux: http.NewServeMux(), log: log.Named("http")}
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/ping", s.handlePing)
	s.mux.HandleFunc("/health", s.handleHealth)
	if s.deps.Dashboard {
		s.mux.HandleFunc("/api/stats", s.authorized(s.handleStats))
		s.mux.HandleFunc("/api/temp-channels", s.authorized(s.handleTempChannels))
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"service":   "upi-rooms-bot",
		"timestamp": s.deps.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "healthy",
		"timestamp": s.deps.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			s.log.Warn("health: db ping failed", zap.Error(err))
			body["status"] = "degraded"
			body["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			body["database"] = "ok"
		}
	}
	writeJSON(w, code, body)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"timestamp": s.deps.Now().UTC().Format(time.RFC3339)}
	if s.deps.Metrics != nil {
		out["metrics"] = s.deps.Metrics.Snapshot()
	}
	if s.deps.Stats != nil {
		st, err := s.deps.Stats.GlobalStats(r.Context())
		if err != nil {
			s.log.Warn("stats: global stats failed", zap.Error(err))
		} else {
			out["total_users"] = st.TotalUsers
			out["total_qr_generated"] = st.TotalQRGenerated
			out["total_upi_saved"] = st.TotalUPISaved
			out["database_size_mb"] = st.DatabaseSizeMB
		}
	}
	if s.deps.Rooms != nil {
		out["active_temp_channels"] = len(s.deps.Rooms.Tracked())
	}
	writeJSON(w, http.StatusOK, out)
}

type roomView struct {
	ChannelID   string    `json:"channel_id"`
	OwnerUserID string    `json:"owner_user_id"`
	GuildID     string    `json:"guild_id"`
	CreatedAt   time.Time `json:"created_at"`
	AgeSeconds  int64     `json:"age_seconds"`
}

func (s *Server) handleTempChannels(w http.ResponseWriter, _ *http.Request) {
	now := s.deps.Now()
	var rooms []domain.TempChannel
	if s.deps.Rooms != nil {
		rooms = s.deps.Rooms.Tracked()
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })

	views := make([]roomView, 0, len(rooms))
	for _, tc := range rooms {
		views = append(views, roomView{
			ChannelID:   tc.ChannelID,
			OwnerUserID: tc.OwnerUserID,
			GuildID:     tc.GuildID,
			CreatedAt:   tc.CreatedAt.UTC(),
			AgeSeconds:  int64(tc.Age(now) / time.Second),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(views), "channels": views})
}

// authorized: ?token= contra DASHBOARD_TOKEN; sin token configurado queda abierto.
func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.deps.Token != "" {
			got := r.URL.Query().Get("token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.deps.Token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start bloquea hasta que ctx se cancela; luego apaga con 5s de gracia.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("🌐 HTTP listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
