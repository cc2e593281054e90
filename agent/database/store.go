package database

import (
	"errors"
	"time"

	"dexscanner-monitor/agent/internal/models"
)

var (
	// ErrDuplicateToken is returned by AddToken when the pair id already
	// exists. Discovery checks TokenExists first; hitting this anyway means
	// the check raced another writer and the candidate is skipped.
	ErrDuplicateToken = errors.New("token already exists")

	// ErrUnknownToken is returned when a performance sample targets a pair id
	// that was never inserted.
	ErrUnknownToken = errors.New("token not found")
)

// TrackedToken is the slim projection the performance loop iterates over.
type TrackedToken struct {
	ID         string
	PairName   string
	DetectedAt time.Time
}

// TokenStore is the persistence boundary for the two monitoring loops.
// Implementations must reject duplicate token ids on insert and return
// performance history oldest-first.
type TokenStore interface {
	TokenExists(id string) (bool, error)
	AddToken(token *models.Token) error
	AddPerformance(tokenID string, sample models.TokenPerformance) error
	UpsertSecurityCheck(tokenID string, check models.SecurityCheck) error
	PerformanceHistory(tokenID string, since time.Duration) ([]models.TokenPerformance, error)
	TrackedTokens(within time.Duration) ([]TrackedToken, error)

	// MarkCheckpointAlerted records that the alert for the given checkpoint
	// was delivered. It returns true only for the call that actually claimed
	// the checkpoint, so concurrent or repeated matches alert at most once.
	MarkCheckpointAlerted(tokenID string, checkpointHours int) (bool, error)
}
