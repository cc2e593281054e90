package services

import (
	"context"
	"testing"
	"time"

	"dexscanner-monitor/agent/database"
	"dexscanner-monitor/agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var perfNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newPerformanceFixture(t *testing.T) (*PerformanceService, *fakeAPI, *database.MemoryStore, *fakeNotifier) {
	t.Helper()
	api := newFakeAPI()
	store := database.NewMemoryStore()
	store.SetNowFunc(func() time.Time { return perfNow })
	notifier := &fakeNotifier{}
	svc := NewPerformanceService(api, store, notifier, PerformanceConfig{
		Interval:        15 * time.Minute,
		ErrorBackoff:    30 * time.Minute,
		Retention:       7 * 24 * time.Hour,
		CheckpointHours: []int{1, 6, 24},
		Tolerance:       10 * time.Minute,
	}, testLogger(t))
	svc.now = func() time.Time { return perfNow }
	return svc, api, store, notifier
}

func seedToken(t *testing.T, store *database.MemoryStore, id string, detectedAt time.Time, sampleCount int) {
	t.Helper()
	require.NoError(t, store.AddToken(&models.Token{
		ID: id, PairName: id + " pump.fun", Chain: "SOL", Source: "pump.fun", DetectedAt: detectedAt,
	}))
	for i := 0; i < sampleCount; i++ {
		require.NoError(t, store.AddPerformance(id, models.TokenPerformance{
			Timestamp: detectedAt.Add(time.Duration(i+1) * 15 * time.Minute),
			Price:     0.001 * float64(i+1),
			MarketCap: 100_000,
			Holders:   100 + i,
		}))
	}
}

func TestCheckpointAlert_FiresExactlyOnceAtOneHour(t *testing.T) {
	svc, _, store, notifier := newPerformanceFixture(t)

	detectedAt := perfNow.Add(-60 * time.Minute)
	seedToken(t, store, "pair-1", detectedAt, 2)

	token := database.TrackedToken{ID: "pair-1", PairName: "pair-1 pump.fun", DetectedAt: detectedAt}
	svc.maybeSendCheckpointAlert(token, perfNow)

	require.Len(t, notifier.sent(), 1, "the 1h checkpoint should fire exactly once")
	assert.Contains(t, notifier.sent()[0], "PERFORMANCE UPDATE")
	assert.Contains(t, notifier.sent()[0], "pair-1 pump.fun")

	// A second cycle inside the same tolerance window must not re-fire.
	svc.maybeSendCheckpointAlert(token, perfNow.Add(5*time.Minute))
	assert.Len(t, notifier.sent(), 1, "the sent-flag keeps delivery at-most-once")
}

func TestCheckpointAlert_RequiresTwoSamples(t *testing.T) {
	svc, _, store, notifier := newPerformanceFixture(t)

	detectedAt := perfNow.Add(-60 * time.Minute)
	seedToken(t, store, "pair-1", detectedAt, 1)

	svc.maybeSendCheckpointAlert(database.TrackedToken{ID: "pair-1", PairName: "pair-1 pump.fun", DetectedAt: detectedAt}, perfNow)

	assert.Empty(t, notifier.sent(), "a single sample is not enough history")
}

func TestCheckpointAlert_OutsideToleranceIsSilent(t *testing.T) {
	svc, _, store, notifier := newPerformanceFixture(t)

	// 3h old: between the 1h and 6h checkpoints, outside both windows.
	detectedAt := perfNow.Add(-3 * time.Hour)
	seedToken(t, store, "pair-1", detectedAt, 5)

	svc.maybeSendCheckpointAlert(database.TrackedToken{ID: "pair-1", PairName: "pair-1 pump.fun", DetectedAt: detectedAt}, perfNow)

	assert.Empty(t, notifier.sent())
}

func TestCheckpointAlert_FirstMatchWins(t *testing.T) {
	svc, _, store, notifier := newPerformanceFixture(t)

	// Overlapping configuration: both 1h and 2h windows would match at 90min
	// with an oversized tolerance. Only the first configured checkpoint may
	// fire in one cycle.
	svc.checkpointHours = []int{1, 2}
	svc.tolerance = 45 * time.Minute

	detectedAt := perfNow.Add(-90 * time.Minute)
	seedToken(t, store, "pair-1", detectedAt, 3)

	svc.maybeSendCheckpointAlert(database.TrackedToken{ID: "pair-1", PairName: "pair-1 pump.fun", DetectedAt: detectedAt}, perfNow)

	assert.Len(t, notifier.sent(), 1, "checkpoints are mutually exclusive per cycle")
}

func TestMonitorPerformance_AppendsSampleEveryCycle(t *testing.T) {
	svc, api, store, _ := newPerformanceFixture(t)

	detectedAt := perfNow.Add(-3 * time.Hour)
	seedToken(t, store, "pair-1", detectedAt, 2)
	api.details["pair-1"] = &TokenDetails{Price: 0.004, MarketCap: 200_000, HoldersCount: 150}

	require.NoError(t, svc.MonitorPerformance(context.Background()))

	history, err := store.PerformanceHistory("pair-1", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, history, 3, "sampling happens every cycle, with or without a checkpoint")

	latest := history[len(history)-1]
	assert.Equal(t, 0.004, latest.Price)
	assert.Equal(t, 150, latest.Holders)
	assert.Equal(t, perfNow, latest.Timestamp)
}

func TestMonitorPerformance_FetchFailureSkipsTokenNotSiblings(t *testing.T) {
	svc, api, store, _ := newPerformanceFixture(t)

	seedToken(t, store, "pair-bad", perfNow.Add(-3*time.Hour), 1)
	seedToken(t, store, "pair-good", perfNow.Add(-2*time.Hour), 1)
	api.detailErrs["pair-bad"] = assert.AnError
	api.details["pair-good"] = &TokenDetails{Price: 0.01}

	require.NoError(t, svc.MonitorPerformance(context.Background()))

	badHistory, err := store.PerformanceHistory("pair-bad", 24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, badHistory, 1, "failed token keeps its old history only")

	goodHistory, err := store.PerformanceHistory("pair-good", 24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, goodHistory, 2, "siblings still get sampled")
}

func TestMonitorPerformance_RespectsRetentionWindow(t *testing.T) {
	svc, api, store, _ := newPerformanceFixture(t)

	seedToken(t, store, "pair-old", perfNow.Add(-8*24*time.Hour), 1)
	api.details["pair-old"] = &TokenDetails{Price: 0.01}

	require.NoError(t, svc.MonitorPerformance(context.Background()))

	assert.Equal(t, 0, api.detailCallCount("pair-old"), "tokens older than the retention window are not sampled")
}
