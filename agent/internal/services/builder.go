package services

import (
	"strings"
	"time"

	"dexscanner-monitor/agent/internal/models"
)

// platformSources is the allow-list of launch platforms worth tracking.
// A listing whose name contains none of these markers is skipped.
var platformSources = []string{"pump.fun", "pump.swap"}

// TokenReport carries the display-ready fields for a discovery alert.
type TokenReport struct {
	ID             string
	PairName       string
	Deployer       string
	OwnerRenounced bool
	Chain          string
	Age            string
	MintStatus     string
	LiqBurned      float64
	MarketCap      string
	Liquidity      string
	LiqPercentage  int
	Price          string
	PriceChange24h float64
	Volume24h      string
	Buys           int
	Sells          int
	LaunchMC       string
	LaunchMCMult   string
	ATH            string
	ATHMult        string
	Source         string
	SourceLink     string
	TxCount        int
	HoldersCount   int
	Top10Percent   float64
	Airdrops       int
	AirdropsPct    float64
	Block0Pct      float64
	Block0Amount   float64
	FreshWallets   int
	FreshWalletPct float64
	TeamWalletPct  float64
	TeamWalletSOL  float64
	DeployerSOL    float64
	DeployerPct    float64
	Website        string

	SecurityWarnings []string
}

// BuildResult bundles the three artifacts produced from one (listing,
// details) pair: the canonical token record, a performance sample and the
// security verdict, plus the display report for the alert body.
type BuildResult struct {
	Report      TokenReport
	Token       models.Token
	Performance models.TokenPerformance
	Security    models.SecurityCheck
}

// BuildTokenRecord normalizes a raw (listing, details) pair into a
// BuildResult. It returns nil when the listing's name carries no recognized
// platform marker; that is the quality gate, not an error. Missing detail
// fields default to zero values, so the build itself never fails.
func BuildTokenRecord(listing Listing, details *TokenDetails, now time.Time) *BuildResult {
	source := detectSource(listing.Name)
	if source == "" {
		return nil
	}

	if details == nil {
		details = &TokenDetails{}
	}

	launchTime := parseLaunchTime(listing.CreatedAt)

	deployer := details.Deployer
	if deployer == "" {
		deployer = "Unknown"
	}
	pairName := listing.Name
	if pairName == "" {
		pairName = "Unknown"
	}
	website := details.Website
	if website == "" {
		website = "https://" + source
	}

	mintStatus := "No ✅"
	if details.MintEnabled {
		mintStatus = "Yes ⚠️"
	}

	security := EvaluateTokenSecurity(details, now)

	report := TokenReport{
		ID:             listing.ID,
		PairName:       pairName,
		Deployer:       deployer,
		OwnerRenounced: details.OwnerRenounced,
		Chain:          "SOL",
		Age:            FormatAge(launchTime, now),
		MintStatus:     mintStatus,
		LiqBurned:      details.LiquidityBurned,
		MarketCap:      FormatNumber(listing.MarketCap, 1),
		Liquidity:      FormatNumber(listing.Liquidity, 1),
		LiqPercentage:  Percentage(listing.Liquidity, listing.MarketCap),
		Price:          FormatNumber(listing.Price, 8),
		PriceChange24h: listing.PriceChange24h,
		Volume24h:      FormatNumber(listing.Volume24h, 1),
		Buys:           details.Buys24h,
		Sells:          details.Sells24h,
		LaunchMC:       FormatNumber(details.LaunchMarketCap, 1),
		LaunchMCMult:   Multiplier(listing.MarketCap, details.LaunchMarketCap),
		ATH:            FormatNumber(details.ATHMarketCap, 1),
		ATHMult:        Multiplier(details.ATHMarketCap, listing.MarketCap),
		Source:         source,
		SourceLink:     "https://" + source,
		TxCount:        details.TransactionCount,
		HoldersCount:   details.HoldersCount,
		Top10Percent:   details.Top10HoldersPercentage,
		Airdrops:       details.AirdropsCount,
		AirdropsPct:    details.AirdropsPercentage,
		Block0Pct:      details.Block0SnipesPercentage,
		Block0Amount:   details.Block0SnipesAmount,
		FreshWallets:   details.FreshWalletsCount,
		FreshWalletPct: details.FreshWalletsPercentage,
		TeamWalletPct:  details.TeamWalletsPercentage,
		TeamWalletSOL:  details.TeamWalletsAmount,
		DeployerSOL:    details.DeployerAmount,
		DeployerPct:    details.DeployerPercentage,
		Website:        website,

		SecurityWarnings: SecurityWarnings(security),
	}

	token := models.Token{
		ID:               listing.ID,
		PairName:         pairName,
		Deployer:         deployer,
		OwnerRenounced:   details.OwnerRenounced,
		LaunchTime:       launchTime,
		MintEnabled:      details.MintEnabled,
		LiqBurned:        details.LiquidityBurned,
		Chain:            "SOL",
		InitialMarketCap: listing.MarketCap,
		InitialLiquidity: listing.Liquidity,
		Website:          website,
		Source:           source,
		DetectedAt:       now,
		IsSafe:           security.IsSafe(),
	}

	// The performance loop re-samples through the detail payload only, so
	// the listing metrics may be zero there; fall back to the details.
	performance := models.TokenPerformance{
		Timestamp: now,
		Price:     firstNonZero(listing.Price, details.Price),
		MarketCap: firstNonZero(listing.MarketCap, details.MarketCap),
		Volume24h: firstNonZero(listing.Volume24h, details.Volume24h),
		Holders:   details.HoldersCount,
	}

	return &BuildResult{
		Report:      report,
		Token:       token,
		Performance: performance,
		Security:    security,
	}
}

func detectSource(name string) string {
	nameLower := strings.ToLower(name)
	for _, platform := range platformSources {
		if strings.Contains(nameLower, platform) {
			return platform
		}
	}
	return ""
}

func parseLaunchTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
