package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jose-valero/upi-rooms-bot/internal/adapters/avatar"
	discordrouter "github.com/jose-valero/upi-rooms-bot/internal/adapters/discord"
	"github.com/jose-valero/upi-rooms-bot/internal/adapters/httpapi"
	"github.com/jose-valero/upi-rooms-bot/internal/app/qr"
	"github.com/jose-valero/upi-rooms-bot/internal/app/ratelimit"
	"github.com/jose-valero/upi-rooms-bot/internal/app/scheduler"
	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
	"github.com/jose-valero/upi-rooms-bot/internal/infra/config"
	"github.com/jose-valero/upi-rooms-bot/internal/infra/crypto"
	"github.com/jose-valero/upi-rooms-bot/internal/infra/logging"
	"github.com/jose-valero/upi-rooms-bot/internal/infra/mongostore"
	"github.com/jose-valero/upi-rooms-bot/internal/infra/storage"
)

// backend: lo que el resto del proceso necesita del storage elegido.
type backend struct {
	profiles service.ProfileRepo
	events   service.AnalyticsRepo
	rooms    service.TempChannelLog
	health   service.Pinger
	close    func()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// sin logger todavía
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.Must(cfg.LogLevel, cfg.LogDev)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	st, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}
	defer st.close()

	// Crypto + QR
	cipher, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatal("cipher", zap.Error(err))
	}
	if cipher.Ephemeral() {
		log.Warn("⚠️ ENCRYPTION_KEY not set: using a process-only key, stored data will be unreadable after restart")
	}
	qrGen := qr.NewGenerator(avatar.New(), log)

	// Services
	metrics := service.NewMetrics()
	analytics := service.NewAnalytics(st.events, cfg.EnableAnalytics, log)
	creds := service.NewCredentialStore(st.profiles, st.events, st.health, cipher, analytics, log)
	payments := service.NewPaymentService(creds, qrGen, analytics, metrics, true, log)

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal("discord session", zap.Error(err))
	}
	s.Identify.Intents = discordrouter.Intents
	s.StateEnabled = true

	rooms := service.NewLifecycleManager(discordrouter.NewPlatform(s, log), service.LifecycleConfig{
		LobbyChannelIDs: cfg.VoiceChannelIDs,
		Cooldown:        cfg.VoiceCooldown,
		MaxPerUser:      cfg.MaxTempChannelsPerUser,
		MaxAge:          cfg.TempChannelMaxAge,
		Grace:           cfg.TempChannelGrace,
	}, st.rooms, analytics, log)

	limiter := ratelimit.New(cfg.MaxCommandsPerMinute, time.Minute)
	cooldowns := ratelimit.NewCooldowns(0, cfg.CommandCooldown)

	r := discordrouter.NewRouter(s, discordrouter.Config{
		OwnerID:         cfg.BotOwnerID,
		Activity:        cfg.BotActivity,
		CommandCooldown: cfg.CommandCooldown,
	}, discordrouter.Deps{
		Payments:  payments,
		Rooms:     rooms,
		Analytics: analytics,
		Metrics:   metrics,
		Limiter:   limiter,
		Cooldowns: cooldowns,
	}, log)
	r.Handlers()

	if err := s.Open(); err != nil {
		log.Fatal("discord open", zap.Error(err))
	}
	log.Info("✅ connected", zap.String("user", s.State.User.Username), zap.String("id", s.State.User.ID))
	if err := r.Register(); err != nil {
		log.Fatal("registering commands", zap.Error(err))
	}

	// HTTP keep-alive / dashboard
	web := httpapi.New(cfg.HTTPAddr, httpapi.Deps{
		Stats:     payments,
		Metrics:   metrics,
		Rooms:     rooms,
		DB:        st.health,
		Dashboard: cfg.EnableDashboard,
		Token:     cfg.DashboardToken,
	}, log)
	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		if err := web.Start(ctx); err != nil {
			log.Error("http server", zap.Error(err))
		}
	}()

	// Jobs
	sched := scheduler.New(log)
	sched.Add(scheduler.Job{
		Name:     "voice-monitor",
		Every:    5 * time.Minute,
		Timeout:  time.Minute,
		RunFirst: true,
		Fn:       r.EnsureLobbyPresence,
	})
	sched.Add(scheduler.Job{
		Name:  "temp-channel-sweep",
		Every: cfg.CleanupInterval,
		Fn: func(ctx context.Context) error {
			rooms.Sweep(ctx, time.Now())
			return nil
		},
	})
	sched.Add(scheduler.Job{
		Name:    "analytics",
		Every:   30 * time.Minute,
		Timeout: 2 * time.Minute,
		Fn: func(ctx context.Context) error {
			s.State.RLock()
			guilds := len(s.State.Guilds)
			s.State.RUnlock()
			analytics.Snapshot(ctx, metrics.Snapshot(), map[string]any{
				"guilds":        guilds,
				"temp_channels": len(rooms.Tracked()),
			})
			if n, err := analytics.Prune(ctx, cfg.AnalyticsRetention); err != nil {
				log.Warn("analytics retention", zap.Error(err))
			} else if n > 0 {
				log.Info("🧹 analytics pruned", zap.Int64("deleted", n))
			}
			if n := limiter.Prune(); n > 0 {
				log.Debug("rate limiter pruned", zap.Int("keys", n))
			}
			_, err := st.rooms.PruneBefore(ctx, time.Now())
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:  "health",
		Every: 10 * time.Minute,
		Fn: func(ctx context.Context) error {
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			log.Info("💓 health",
				zap.Float64("heap_mb", float64(mem.HeapAlloc)/(1<<20)),
				zap.Int("goroutines", runtime.NumGoroutine()),
				zap.Int("tracked_rooms", len(rooms.Tracked())))
			return st.health.Ping(ctx)
		},
	})
	sched.Start(ctx)

	log.Info("🚀 bot running", zap.Strings("lobbies", cfg.VoiceChannelIDs))
	<-ctx.Done()
	log.Info("🛑 shutting down")

	sched.Wait()
	rooms.Wait()
	<-httpDone
	if err := s.Close(); err != nil {
		log.Warn("discord close", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	if cfg.UsesMongo() {
		ms, err := mongostore.Open(ctx, cfg.DatabaseURL, cfg.MongoDBName, cfg.AnalyticsRetention, log.Named("mongo"))
		if err != nil {
			return nil, err
		}
		log.Info("✅ MongoDB ready", zap.String("db", cfg.MongoDBName))
		return &backend{
			profiles: ms.Profiles(),
			events:   ms.Analytics(),
			rooms:    ms.TempChannels(),
			health:   ms,
			close: func() {
				cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = ms.Close(cctx)
			},
		}, nil
	}

	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("✅ Postgres ready and migrated")
	return &backend{
		profiles: storage.NewProfileRepo(db),
		events:   storage.NewAnalyticsRepo(db),
		rooms:    storage.NewTempChannelRepo(db),
		health:   storage.NewHealth(db),
		close:    func() { _ = db.Close() },
	}, nil
}
