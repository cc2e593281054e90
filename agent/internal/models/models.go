package models

import "time"

// Token represents one tracked trading pair. A row is created exactly once,
// at first discovery; DetectedAt is never updated afterwards.
type Token struct {
	ID               string     `gorm:"primaryKey"`         // Pair id assigned by the market-data source
	PairName         string     `gorm:"not null"`           // Display name, e.g. "DOGE/SOL pump.fun"
	Deployer         string     // Deployer address or "Unknown"
	OwnerRenounced   bool       `gorm:"not null"`           // Ownership renounced flag from details
	LaunchTime       *time.Time // Source-reported creation time, may be absent
	MintEnabled      bool       `gorm:"not null"`           // Mint authority still active
	LiqBurned        float64    // Percent of liquidity burned
	Chain            string     `gorm:"not null"`           // Chain identifier
	InitialMarketCap float64    `gorm:"column:initial_mc"`  // Market cap at discovery
	InitialLiquidity float64    `gorm:"column:initial_liq"` // Liquidity at discovery
	Website          string     // Project website or launch platform link
	Source           string     `gorm:"not null"`           // Launch platform the pair came from
	DetectedAt       time.Time  `gorm:"not null"`           // Set by the monitor on first discovery
	IsSafe           bool       `gorm:"not null"`           // Recomputed on every security check
}

// TokenPerformance is an append-only market snapshot keyed by
// (token_id, timestamp). Rows are never mutated or deleted by the monitor.
type TokenPerformance struct {
	TokenID   string    `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"primaryKey"`
	Price     float64
	MarketCap float64
	Volume24h float64 `gorm:"column:volume_24h"`
	Holders   int
}

// SecurityCheck keeps only the latest verdict per token; every re-check
// overwrites the previous row and recomputes the owning Token's IsSafe.
// Honeypot and proxy detection require contract execution and stay false
// until a real detector exists; the columns are kept so future detectors
// do not need a schema change.
type SecurityCheck struct {
	TokenID              string `gorm:"primaryKey"`
	HasHoneypot          bool   `gorm:"not null"`
	HasMintFunction      bool   `gorm:"not null"`
	HasProxy             bool   `gorm:"not null"`
	HasSuspiciousHolders bool   `gorm:"not null"`
	CheckTime            time.Time
}

// IsSafe reports whether no red flag is raised.
func (c SecurityCheck) IsSafe() bool {
	return !c.HasHoneypot && !c.HasMintFunction && !c.HasProxy && !c.HasSuspiciousHolders
}

// CheckpointAlert records that a performance alert for a given post-discovery
// checkpoint was already delivered, making delivery at-most-once even across
// restarts or cadence changes.
type CheckpointAlert struct {
	TokenID         string `gorm:"primaryKey"`
	CheckpointHours int    `gorm:"primaryKey"`
	SentAt          time.Time
}
