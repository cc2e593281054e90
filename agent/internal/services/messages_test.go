package services

import (
	"testing"
	"time"

	"dexscanner-monitor/agent/database"
	"dexscanner-monitor/agent/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatPerformanceAlert_PriceChangeFromWindowEnds(t *testing.T) {
	detectedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	token := database.TrackedToken{ID: "pair-1", PairName: "WIF pump.fun", DetectedAt: detectedAt}
	history := []models.TokenPerformance{
		{Timestamp: detectedAt.Add(15 * time.Minute), Price: 0.001, MarketCap: 100_000, Volume24h: 25_000, Holders: 80},
		{Timestamp: detectedAt.Add(30 * time.Minute), Price: 0.0015, MarketCap: 150_000, Volume24h: 40_000, Holders: 100},
		{Timestamp: detectedAt.Add(45 * time.Minute), Price: 0.0025, MarketCap: 250_000, Volume24h: 60_000, Holders: 140},
	}

	msg := FormatPerformanceAlert(token, history)

	assert.Contains(t, msg, "📊 PERFORMANCE UPDATE 📊")
	assert.Contains(t, msg, "Pair: WIF pump.fun")
	assert.Contains(t, msg, "Current Price: $0.00250000")
	assert.Contains(t, msg, "Price Change: 150.00%")
	assert.Contains(t, msg, "Current MC: $250.0K")
	assert.Contains(t, msg, "Holders: 140")
	assert.Contains(t, msg, "24h Volume: $60.0K")
	assert.Contains(t, msg, "Monitored since: 2025-06-01T10:00:00Z")
}

func TestFormatPerformanceAlert_ZeroFirstPriceReportsNoChange(t *testing.T) {
	token := database.TrackedToken{ID: "pair-1", PairName: "WIF pump.fun", DetectedAt: time.Now()}
	history := []models.TokenPerformance{
		{Price: 0},
		{Price: 0.002},
	}

	msg := FormatPerformanceAlert(token, history)

	assert.Contains(t, msg, "Price Change: 0.00%")
}

func TestFormatDiscoveryAlert_IncludesWarningsOnlyWhenPresent(t *testing.T) {
	report := &TokenReport{
		PairName:   "WIF pump.fun",
		Deployer:   "Unknown",
		Chain:      "SOL",
		Age:        "3h 0m",
		MintStatus: "No ✅",
	}

	msg := FormatDiscoveryAlert(report)
	assert.NotContains(t, msg, "SECURITY WARNINGS")
	assert.Contains(t, msg, "📌 Pair: WIF pump.fun")
	assert.Contains(t, msg, "Owner: NOT RENOUNCED")

	report.OwnerRenounced = true
	report.SecurityWarnings = []string{"Token contract can mint new tokens"}

	msg = FormatDiscoveryAlert(report)
	assert.Contains(t, msg, "Owner: RENOUNCED")
	assert.Contains(t, msg, "⚠️ SECURITY WARNINGS ⚠️")
	assert.Contains(t, msg, "- Token contract can mint new tokens")
}
