package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

type fakeStats struct{ err error }

func (f fakeStats) GlobalStats(context.Context) (domain.GlobalStats, error) {
	return domain.GlobalStats{TotalUsers: 4, TotalQRGenerated: 9, TotalUPISaved: 5, DatabaseSizeMB: 1.5}, f.err
}

type fakeRooms []domain.TempChannel

func (f fakeRooms) Tracked() []domain.TempChannel { return append([]domain.TempChannel(nil), f...) }

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error               { return f.err }
func (f fakeDB) SizeMB(context.Context) (float64, error) { return 1, nil }

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newServer(deps Deps) http.Handler {
	deps.Now = func() time.Time { return fixedNow }
	return New(":0", deps, nil).Handler()
}

func do(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRootPingHealth(t *testing.T) {
	h := newServer(Deps{DB: fakeDB{}})

	rec, body := do(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "2025-03-01T12:00:00Z", body["timestamp"])

	rec, _ = do(t, h, "/ping")
	assert.Equal(t, "pong", rec.Body.String())

	rec, body = do(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	rec, _ = do(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth_DegradedWhenDBDown(t *testing.T) {
	rec, body := do(t, newServer(Deps{DB: fakeDB{err: errors.New("down")}}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestDashboard_Token(t *testing.T) {
	h := newServer(Deps{Dashboard: true, Token: "s3cret", Stats: fakeStats{}, Metrics: service.NewMetrics()})

	rec, _ := do(t, h, "/api/stats")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, "/api/stats?token=wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := do(t, h, "/api/stats?token=s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, body["total_users"])
	assert.Contains(t, body, "metrics")
}

func TestDashboard_Disabled(t *testing.T) {
	rec, _ := do(t, newServer(Deps{Dashboard: false}), "/api/stats")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTempChannels_SortedWithAge(t *testing.T) {
	rooms := fakeRooms{
		{ChannelID: "b", OwnerUserID: "u2", CreatedAt: fixedNow.Add(-time.Minute)},
		{ChannelID: "a", OwnerUserID: "u1", CreatedAt: fixedNow.Add(-time.Hour)},
	}
	rec, body := do(t, newServer(Deps{Dashboard: true, Rooms: rooms}), "/api/temp-channels")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	chans := body["channels"].([]any)
	first := chans[0].(map[string]any)
	assert.Equal(t, "a", first["channel_id"])
	assert.EqualValues(t, 3600, first["age_seconds"])
}

func TestStats_ToleratesStoreFailure(t *testing.T) {
	h := newServer(Deps{Dashboard: true, Stats: fakeStats{err: errors.New("db")}, Rooms: fakeRooms{}})
	rec, body := do(t, h, "/api/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body, "total_users")
	assert.EqualValues(t, 0, body["active_temp_channels"])
}
