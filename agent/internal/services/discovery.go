package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"dexscanner-monitor/agent/database"
	"dexscanner-monitor/shared/logger"
)

// DiscoveryService polls the new-listings feed and turns unseen pairs into
// tracked tokens. Per candidate the pipeline is: seen-in-memory → exists in
// store → fetch details → build → persist → alert; the first failing stage
// skips the candidate without touching its siblings.
type DiscoveryService struct {
	api       MarketDataAPI
	store     database.TokenStore
	notifier  Notifier
	appLogger *logger.Logger

	interval time.Duration
	now      func() time.Time

	// processed is the fast, process-local dedup layer. It is an
	// optimization over the store existence check, not the authority: after
	// a restart a pair may get one redundant detail fetch, but AddToken
	// still rejects a duplicate row.
	mu        sync.Mutex
	processed map[string]struct{}
}

func NewDiscoveryService(api MarketDataAPI, store database.TokenStore, notifier Notifier, interval time.Duration, appLogger *logger.Logger) *DiscoveryService {
	return &DiscoveryService{
		api:       api,
		store:     store,
		notifier:  notifier,
		appLogger: appLogger,
		interval:  interval,
		now:       time.Now,
		processed: make(map[string]struct{}),
	}
}

// Run executes discovery cycles until the context is cancelled. A cycle that
// errors out doubles the sleep before the next one; the loop itself never
// terminates on an iteration failure.
func (s *DiscoveryService) Run(ctx context.Context) {
	s.appLogger.Info("Discovery loop started", "interval", s.interval.String())

	for {
		sleep := s.interval
		if err := s.CheckNewListings(ctx); err != nil {
			s.appLogger.Error("Error in discovery cycle", "error", err)
			sleep = s.interval * 2
		}

		select {
		case <-ctx.Done():
			s.appLogger.Info("Discovery loop stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// CheckNewListings runs one discovery cycle over the current feed contents.
func (s *DiscoveryService) CheckNewListings(ctx context.Context) error {
	s.appLogger.Debug("Checking for new listings...")

	listings, err := s.api.GetNewListings(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		s.appLogger.Warn("No data received from listings feed", "error", err)
		return nil
	}

	for _, listing := range listings {
		if ctx.Err() != nil {
			return nil
		}
		s.processListing(ctx, listing)
	}
	return nil
}

func (s *DiscoveryService) processListing(ctx context.Context, listing Listing) {
	pairID := listing.ID
	if pairID == "" {
		return
	}

	if s.alreadyProcessed(pairID) {
		return
	}

	exists, err := s.store.TokenExists(pairID)
	if err != nil {
		s.appLogger.Error("Store existence check failed", "pairID", pairID, "error", err)
		return
	}
	if exists {
		return
	}

	details, err := s.api.GetTokenDetails(ctx, pairID)
	if err != nil {
		s.appLogger.Debug("Skipping candidate, details unavailable", "pairID", pairID, "error", err)
		return
	}

	result := BuildTokenRecord(listing, details, s.now())
	if result == nil {
		// Not from a tracked launch platform.
		return
	}

	s.markProcessed(pairID)

	if err := s.store.AddToken(&result.Token); err != nil {
		if errors.Is(err, database.ErrDuplicateToken) {
			// The exists check passed but the insert lost the race.
			s.appLogger.Warn("Duplicate token insert after passed existence check, skipping", "pairID", pairID)
		} else {
			s.appLogger.Error("Failed to persist new token", "pairID", pairID, "error", err)
		}
		return
	}

	if err := s.store.AddPerformance(pairID, result.Performance); err != nil {
		s.appLogger.Error("Failed to persist initial performance sample", "pairID", pairID, "error", err)
	}
	if err := s.store.UpsertSecurityCheck(pairID, result.Security); err != nil {
		s.appLogger.Error("Failed to persist security check", "pairID", pairID, "error", err)
	}

	// Alerting happens after durability and never rolls it back.
	if err := s.notifier.Send(FormatDiscoveryAlert(&result.Report)); err != nil {
		s.appLogger.Error("Failed to send discovery alert", "pairID", pairID, "error", err)
	}

	s.appLogger.Info("New token detected and notified", "pairID", pairID, "pairName", result.Token.PairName, "source", result.Token.Source)
}

func (s *DiscoveryService) alreadyProcessed(pairID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[pairID]
	return ok
}

func (s *DiscoveryService) markProcessed(pairID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[pairID] = struct{}{}
}
