package database

import (
	"testing"
	"time"

	"dexscanner-monitor/agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *MemoryStore {
	store := NewMemoryStore()
	store.SetNowFunc(func() time.Time { return storeNow })
	return store
}

func TestAddToken_RejectsDuplicates(t *testing.T) {
	store := newTestStore()

	token := &models.Token{ID: "pair-1", PairName: "WIF pump.fun", DetectedAt: storeNow}
	require.NoError(t, store.AddToken(token))

	err := store.AddToken(token)
	assert.ErrorIs(t, err, ErrDuplicateToken)

	exists, err := store.TokenExists("pair-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAddPerformance_RequiresKnownToken(t *testing.T) {
	store := newTestStore()

	err := store.AddPerformance("nope", models.TokenPerformance{Timestamp: storeNow})
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestPerformanceHistory_RoundTripsOldestFirst(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.AddToken(&models.Token{ID: "pair-1", PairName: "WIF pump.fun", DetectedAt: storeNow.Add(-2 * time.Hour)}))

	// Appended out of order on purpose.
	samples := []models.TokenPerformance{
		{Timestamp: storeNow.Add(-30 * time.Minute), Price: 0.002, MarketCap: 200_000, Volume24h: 50_000, Holders: 120},
		{Timestamp: storeNow.Add(-90 * time.Minute), Price: 0.001, MarketCap: 100_000, Volume24h: 25_000, Holders: 80},
		{Timestamp: storeNow.Add(-60 * time.Minute), Price: 0.0015, MarketCap: 150_000, Volume24h: 40_000, Holders: 100},
	}
	for _, sample := range samples {
		require.NoError(t, store.AddPerformance("pair-1", sample))
	}

	history, err := store.PerformanceHistory("pair-1", 2*time.Hour)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, 0.001, history[0].Price)
	assert.Equal(t, 0.0015, history[1].Price)
	assert.Equal(t, 0.002, history[2].Price)
	for i, sample := range history {
		assert.Equal(t, "pair-1", sample.TokenID)
		if i > 0 {
			assert.False(t, sample.Timestamp.Before(history[i-1].Timestamp))
		}
	}
	assert.Equal(t, 80, history[0].Holders)
	assert.Equal(t, 25_000.0, history[0].Volume24h)
}

func TestPerformanceHistory_WindowExcludesOlderSamples(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.AddToken(&models.Token{ID: "pair-1", PairName: "WIF pump.fun", DetectedAt: storeNow.Add(-3 * time.Hour)}))

	require.NoError(t, store.AddPerformance("pair-1", models.TokenPerformance{Timestamp: storeNow.Add(-2 * time.Hour), Price: 0.001}))
	require.NoError(t, store.AddPerformance("pair-1", models.TokenPerformance{Timestamp: storeNow.Add(-30 * time.Minute), Price: 0.002}))

	history, err := store.PerformanceHistory("pair-1", time.Hour)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 0.002, history[0].Price)
}

func TestUpsertSecurityCheck_RecomputesTokenSafety(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.AddToken(&models.Token{ID: "pair-1", PairName: "WIF pump.fun", DetectedAt: storeNow}))

	clean := models.SecurityCheck{CheckTime: storeNow}
	require.NoError(t, store.UpsertSecurityCheck("pair-1", clean))

	token, ok := store.TokenByID("pair-1")
	require.True(t, ok)
	assert.True(t, token.IsSafe)

	flagged := models.SecurityCheck{HasMintFunction: true, CheckTime: storeNow.Add(time.Minute)}
	require.NoError(t, store.UpsertSecurityCheck("pair-1", flagged))

	token, ok = store.TokenByID("pair-1")
	require.True(t, ok)
	assert.False(t, token.IsSafe, "a later check overwrites the verdict")

	check, ok := store.SecurityCheckFor("pair-1")
	require.True(t, ok)
	assert.True(t, check.HasMintFunction)
	assert.Equal(t, "pair-1", check.TokenID)
}

func TestUpsertSecurityCheck_RequiresKnownToken(t *testing.T) {
	store := newTestStore()

	err := store.UpsertSecurityCheck("nope", models.SecurityCheck{})
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestMarkCheckpointAlerted_ClaimsOnlyOnce(t *testing.T) {
	store := newTestStore()

	claimed, err := store.MarkCheckpointAlerted("pair-1", 1)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkCheckpointAlerted("pair-1", 1)
	require.NoError(t, err)
	assert.False(t, claimed, "a checkpoint can be claimed at most once per token")

	// Other checkpoints and other tokens are independent claims.
	claimed, err = store.MarkCheckpointAlerted("pair-1", 6)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkCheckpointAlerted("pair-2", 1)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestTrackedTokens_WindowAndOrder(t *testing.T) {
	store := newTestStore()

	require.NoError(t, store.AddToken(&models.Token{ID: "pair-old", PairName: "OLD pump.fun", DetectedAt: storeNow.Add(-8 * 24 * time.Hour)}))
	require.NoError(t, store.AddToken(&models.Token{ID: "pair-mid", PairName: "MID pump.fun", DetectedAt: storeNow.Add(-3 * 24 * time.Hour)}))
	require.NoError(t, store.AddToken(&models.Token{ID: "pair-new", PairName: "NEW pump.swap", DetectedAt: storeNow.Add(-time.Hour)}))

	tracked, err := store.TrackedTokens(7 * 24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, tracked, 2)
	assert.Equal(t, "pair-mid", tracked[0].ID)
	assert.Equal(t, "pair-new", tracked[1].ID)
	assert.Equal(t, "NEW pump.swap", tracked[1].PairName)
}
