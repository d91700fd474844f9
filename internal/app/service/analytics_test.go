package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
	"github.com/jose-valero/upi-rooms-bot/internal/app/service/mocks"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

func TestAnalytics_DisabledIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepo(ctrl)
	a := service.NewAnalytics(repo, false, nil)

	a.Log(context.Background(), domain.EventQRGenerated, "u1", "g1", nil)
	sum, err := a.UserSummary(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Empty(t, sum)
}

func TestAnalytics_UserSummaryWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepo(ctrl)
	a := service.NewAnalytics(repo, true, nil)

	repo.EXPECT().CountByType(gomock.Any(), "u1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, since time.Time) (map[string]int64, error) {
			assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), since, time.Minute)
			return map[string]int64{domain.EventQRGenerated: 3}, nil
		})

	sum, err := a.UserSummary(context.Background(), "u1", 30)
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum[domain.EventQRGenerated])
}

func TestAnalytics_SnapshotAndPrune(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepo(ctrl)
	a := service.NewAnalytics(repo, true, nil)

	m := service.NewMetrics()
	m.CommandProcessed()
	m.CommandProcessed()
	m.QRGenerated()

	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e domain.AnalyticsEvent) error {
		assert.Equal(t, domain.EventBotMetrics, e.EventType)
		assert.Empty(t, e.UserID)
		assert.EqualValues(t, 2, e.Data["commands_processed"])
		assert.EqualValues(t, 1, e.Data["qr_generated"])
		assert.EqualValues(t, 4, e.Data["temp_channels"])
		return nil
	})
	a.Snapshot(context.Background(), m.Snapshot(), map[string]any{"temp_channels": 4})

	repo.EXPECT().DeleteBefore(gomock.Any(), gomock.Any()).Return(int64(9), nil)
	n, err := a.Prune(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 9, n)
}
