package storage

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("upi"),
		postgres.WithUsername("upi"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("postgres container unavailable, integration tests skipped: %v", err)
		os.Exit(m.Run())
	}

	code := func() int {
		defer func() {
			if err := pg.Terminate(ctx); err != nil {
				log.Printf("failed to terminate container: %v", err)
			}
		}()

		dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			log.Printf("connection string: %v", err)
			return 1
		}
		db, err := Open(ctx, dsn)
		if err != nil {
			log.Printf("open: %v", err)
			return 1
		}
		defer db.Close()
		if err := Migrate(db); err != nil {
			log.Printf("migrate: %v", err)
			return 1
		}
		testDB = db
		return m.Run()
	}()
	os.Exit(code)
}

func needDB(t *testing.T) *sql.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not available")
	}
	return testDB
}

func TestProfileRepo_UpsertGetDelete(t *testing.T) {
	db := needDB(t)
	ctx := context.Background()
	repo := NewProfileRepo(db)

	_, err := repo.Get(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := domain.UPIProfile{
		UserID: "u-1", UPIID: "john@ybl", Name: "John", Note: "rent",
		UsageCount: 1, CreatedAt: now, LastUpdated: now,
	}
	require.NoError(t, repo.Upsert(ctx, p))

	got, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "john@ybl", got.UPIID)
	assert.Equal(t, 1, got.UsageCount)
	assert.True(t, got.CreatedAt.Equal(now))
	assert.False(t, got.Deleted)

	n, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err := repo.SoftDelete(ctx, "u-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = repo.Get(ctx, "u-1")
	require.NoError(t, err, "soft-deleted rows are still readable")
	assert.True(t, got.Deleted)
	require.NotNil(t, got.DeletedAt)

	n, err = repo.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	// guardar de nuevo actualiza los datos pero no toca el soft delete
	p.UsageCount = 2
	require.NoError(t, repo.Upsert(ctx, p))
	got, err = repo.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.NotNil(t, got.DeletedAt)
	assert.Equal(t, 2, got.UsageCount)

	n, err = repo.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	ok, err = repo.Delete(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Delete(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnalyticsRepo_CountsAndRetention(t *testing.T) {
	db := needDB(t)
	ctx := context.Background()
	repo := NewAnalyticsRepo(db)

	now := time.Now().UTC()
	events := []domain.AnalyticsEvent{
		{EventType: domain.EventQRGenerated, UserID: "a", Timestamp: now},
		{EventType: domain.EventQRGenerated, UserID: "a", Timestamp: now.Add(-time.Hour)},
		{EventType: domain.EventUPISaved, UserID: "a", Timestamp: now, Data: map[string]any{"encrypted": true}},
		{EventType: domain.EventQRGenerated, UserID: "b", Timestamp: now},
		{EventType: domain.EventBotMetrics, Timestamp: now.Add(-40 * 24 * time.Hour)},
	}
	for _, e := range events {
		e.ID = uuid.NewString()
		require.NoError(t, repo.Insert(ctx, e))
	}

	n, err := repo.Count(ctx, domain.EventQRGenerated, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.Count(ctx, domain.EventQRGenerated, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	byType, err := repo.CountByType(ctx, "a", now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{domain.EventQRGenerated: 1, domain.EventUPISaved: 1}, byType)

	deleted, err := repo.DeleteBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestTempChannelRepo_RecordRemovePrune(t *testing.T) {
	db := needDB(t)
	ctx := context.Background()
	repo := NewTempChannelRepo(db)

	now := time.Now().UTC()
	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, repo.Record(ctx, domain.TempChannel{
			ChannelID: id, OwnerUserID: "u", GuildID: "g", BaseChannelID: "lobby", CreatedAt: now,
		}))
	}
	require.NoError(t, repo.Record(ctx, domain.TempChannel{
		ChannelID: "old", OwnerUserID: "u", GuildID: "g", BaseChannelID: "lobby", CreatedAt: now.Add(-3 * time.Hour),
	}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n, "expired rows are not counted")

	require.NoError(t, repo.Remove(ctx, "c1", "c2"))
	require.NoError(t, repo.Remove(ctx))

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	pruned, err := repo.PruneBefore(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)
}

func TestHealth(t *testing.T) {
	db := needDB(t)
	h := NewHealth(db)
	require.NoError(t, h.Ping(context.Background()))
	mb, err := h.SizeMB(context.Background())
	require.NoError(t, err)
	assert.Greater(t, mb, 0.0)
}
