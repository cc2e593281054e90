package services

import (
	"context"
	"time"

	"dexscanner-monitor/agent/database"
	"dexscanner-monitor/shared/logger"
)

// PerformanceService re-samples every tracked token within the retention
// window on its own cadence. Sampling happens every cycle; alerting happens
// only when the token's age crosses one of the configured checkpoints.
type PerformanceService struct {
	api       MarketDataAPI
	store     database.TokenStore
	notifier  Notifier
	appLogger *logger.Logger

	interval     time.Duration
	errorBackoff time.Duration
	retention    time.Duration

	// Checkpoint tolerance must stay much narrower than the cycle interval,
	// and checkpoints much further apart than either, or a token could match
	// the same checkpoint in two consecutive cycles. The persistent
	// sent-flag in the store is the hard at-most-once guarantee either way.
	checkpointHours []int
	tolerance       time.Duration

	now func() time.Time
}

type PerformanceConfig struct {
	Interval        time.Duration
	ErrorBackoff    time.Duration
	Retention       time.Duration
	CheckpointHours []int
	Tolerance       time.Duration
}

func NewPerformanceService(api MarketDataAPI, store database.TokenStore, notifier Notifier, cfg PerformanceConfig, appLogger *logger.Logger) *PerformanceService {
	return &PerformanceService{
		api:             api,
		store:           store,
		notifier:        notifier,
		appLogger:       appLogger,
		interval:        cfg.Interval,
		errorBackoff:    cfg.ErrorBackoff,
		retention:       cfg.Retention,
		checkpointHours: cfg.CheckpointHours,
		tolerance:       cfg.Tolerance,
		now:             time.Now,
	}
}

// Run executes sampling cycles until the context is cancelled. A failed cycle
// backs off for the longer error interval before resuming.
func (s *PerformanceService) Run(ctx context.Context) {
	s.appLogger.Info("Performance loop started",
		"interval", s.interval.String(),
		"retention", s.retention.String(),
		"checkpointHours", s.checkpointHours)

	for {
		sleep := s.interval
		if err := s.MonitorPerformance(ctx); err != nil {
			s.appLogger.Error("Error in performance cycle", "error", err)
			sleep = s.errorBackoff
		}

		select {
		case <-ctx.Done():
			s.appLogger.Info("Performance loop stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// MonitorPerformance runs one sampling cycle over all tokens discovered
// within the retention window. Tokens are processed sequentially, so samples
// per token append in non-decreasing timestamp order.
func (s *PerformanceService) MonitorPerformance(ctx context.Context) error {
	tokens, err := s.store.TrackedTokens(s.retention)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		if ctx.Err() != nil {
			return nil
		}
		s.checkToken(ctx, token)
	}
	return nil
}

func (s *PerformanceService) checkToken(ctx context.Context, token database.TrackedToken) {
	details, err := s.api.GetTokenDetails(ctx, token.ID)
	if err != nil {
		s.appLogger.Debug("Skipping token this cycle, details unavailable", "pairID", token.ID, "error", err)
		return
	}

	now := s.now()
	result := BuildTokenRecord(Listing{ID: token.ID, Name: token.PairName}, details, now)
	if result == nil {
		// Tracked tokens always carried a platform marker at discovery, so
		// this only happens if the stored pair name was mangled.
		s.appLogger.Warn("Tracked token no longer passes the platform filter", "pairID", token.ID, "pairName", token.PairName)
		return
	}

	if err := s.store.AddPerformance(token.ID, result.Performance); err != nil {
		s.appLogger.Error("Failed to append performance sample", "pairID", token.ID, "error", err)
	}

	s.maybeSendCheckpointAlert(token, now)
}

// maybeSendCheckpointAlert fires at most one alert per token per cycle: the
// first checkpoint whose tolerance window contains the token's age wins, and
// the store-side sent-flag keeps repeats out across cycles and restarts.
func (s *PerformanceService) maybeSendCheckpointAlert(token database.TrackedToken, now time.Time) {
	elapsed := now.Sub(token.DetectedAt)

	for _, hours := range s.checkpointHours {
		target := time.Duration(hours) * time.Hour
		if absDuration(elapsed-target) >= s.tolerance {
			continue
		}

		history, err := s.store.PerformanceHistory(token.ID, target)
		if err != nil {
			s.appLogger.Error("Failed to load performance history", "pairID", token.ID, "error", err)
			return
		}
		if len(history) < 2 {
			s.appLogger.Debug("Not enough history for checkpoint update", "pairID", token.ID, "checkpointHours", hours, "samples", len(history))
			return
		}

		claimed, err := s.store.MarkCheckpointAlerted(token.ID, hours)
		if err != nil {
			s.appLogger.Error("Failed to mark checkpoint alerted", "pairID", token.ID, "checkpointHours", hours, "error", err)
			return
		}
		if !claimed {
			s.appLogger.Debug("Checkpoint update already sent", "pairID", token.ID, "checkpointHours", hours)
			return
		}

		if err := s.notifier.Send(FormatPerformanceAlert(token, history)); err != nil {
			s.appLogger.Error("Failed to send performance alert", "pairID", token.ID, "error", err)
			return
		}
		s.appLogger.Info("Sent performance update", "pairID", token.ID, "pairName", token.PairName, "checkpointHours", hours)
		return
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
