package services

import (
	"fmt"
	"strings"
	"time"

	"dexscanner-monitor/agent/database"
	"dexscanner-monitor/agent/internal/models"
	"dexscanner-monitor/shared/notifications"
)

// Notifier is the push channel alerts go out on. Delivery is best-effort:
// the loops log failures and never retry.
type Notifier interface {
	Send(message string) error
}

// TelegramNotifier routes alerts through the shared notifications package.
type TelegramNotifier struct{}

func (TelegramNotifier) Send(message string) error {
	return notifications.SendTelegramMessage(notifications.EscapeMarkdownV2(message))
}

// FormatDiscoveryAlert renders the first-sighting card for a new pair.
func FormatDiscoveryAlert(r *TokenReport) string {
	owner := "NOT RENOUNCED"
	if r.OwnerRenounced {
		owner = "RENOUNCED"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📌 Pair: %s\n", r.PairName))
	sb.WriteString(fmt.Sprintf("👨‍💻 Deployer: %s\n", r.Deployer))
	sb.WriteString(fmt.Sprintf("👤 Owner: %s\n", owner))
	sb.WriteString(fmt.Sprintf("🔸 Chain: %s | ⚖️ Age: %s\n", r.Chain, r.Age))
	sb.WriteString(fmt.Sprintf("🌿 Mint: %s | Liq: 🔥 (%.1f%%)\n", r.MintStatus, r.LiqBurned))
	sb.WriteString(fmt.Sprintf("💰 MC: $%s | Liq: $%s (%d%%)\n", r.MarketCap, r.Liquidity, r.LiqPercentage))
	sb.WriteString(fmt.Sprintf("📈 24h: %.1f%% | V: $%s | B:%d S:%d\n", r.PriceChange24h, r.Volume24h, r.Buys, r.Sells))
	sb.WriteString(fmt.Sprintf("💲 Price: $%s\n", r.Price))
	sb.WriteString(fmt.Sprintf("💵 Launch MC: $%s (%s)\n", r.LaunchMC, r.LaunchMCMult))
	sb.WriteString(fmt.Sprintf("👆 ATH: $%s (%s)\n", r.ATH, r.ATHMult))
	sb.WriteString(fmt.Sprintf("🔗 Website (%s)\n", r.SourceLink))
	sb.WriteString(fmt.Sprintf("📊 TS: %d\n", r.TxCount))
	sb.WriteString(fmt.Sprintf("👩‍👧‍👦 Holders: %d | Top10: %.1f%%\n", r.HoldersCount, r.Top10Percent))
	sb.WriteString(fmt.Sprintf("💸 Airdrops: %d for a total of %.1f%%\n", r.Airdrops, r.AirdropsPct))
	sb.WriteString(fmt.Sprintf("🥡 Block 0 Snipes: %.1f%% | %.2f SOL\n", r.Block0Pct, r.Block0Amount))
	sb.WriteString(fmt.Sprintf("👶🏽 Fresh Wallets: %d | %.1f%% Time\n", r.FreshWallets, r.FreshWalletPct))
	sb.WriteString(fmt.Sprintf("💵 TEAM WALLETS %.1f%% | %.2f SOL\n", r.TeamWalletPct, r.TeamWalletSOL))
	sb.WriteString(fmt.Sprintf("Deployer %.2f SOL | %.1f%% Time", r.DeployerSOL, r.DeployerPct))

	if len(r.SecurityWarnings) > 0 {
		sb.WriteString("\n\n⚠️ SECURITY WARNINGS ⚠️\n")
		for _, warning := range r.SecurityWarnings {
			sb.WriteString(fmt.Sprintf("- %s\n", warning))
		}
	}

	return sb.String()
}

// FormatPerformanceAlert renders a checkpoint update from the sample history
// of the lookback window, oldest first.
func FormatPerformanceAlert(token database.TrackedToken, history []models.TokenPerformance) string {
	var firstPrice, currentPrice float64
	if len(history) > 0 {
		firstPrice = history[0].Price
		currentPrice = history[len(history)-1].Price
	}

	priceChange := 0.0
	if firstPrice > 0 {
		priceChange = (currentPrice - firstPrice) / firstPrice * 100
	}

	latest := models.TokenPerformance{}
	if len(history) > 0 {
		latest = history[len(history)-1]
	}

	return fmt.Sprintf(
		"📊 PERFORMANCE UPDATE 📊\n"+
			"📌 Pair: %s\n"+
			"💲 Current Price: $%.8f\n"+
			"📈 Price Change: %.2f%%\n"+
			"💰 Current MC: $%s\n"+
			"👥 Holders: %d\n"+
			"🔄 24h Volume: $%s\n"+
			"⏰ Monitored since: %s\n",
		token.PairName,
		currentPrice,
		priceChange,
		FormatNumber(latest.MarketCap, 1),
		latest.Holders,
		FormatNumber(latest.Volume24h, 1),
		token.DetectedAt.Format(time.RFC3339),
	)
}
