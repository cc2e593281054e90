package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dexscanner-monitor/shared/logger"
)

// fakeAPI is an in-memory MarketDataAPI that counts calls per pair id.
type fakeAPI struct {
	mu          sync.Mutex
	listings    []Listing
	listErr     error
	details     map[string]*TokenDetails
	detailErrs  map[string]error
	listCalls   int
	detailCalls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		details:     make(map[string]*TokenDetails),
		detailErrs:  make(map[string]error),
		detailCalls: make(map[string]int),
	}
}

func (f *fakeAPI) GetNewListings(ctx context.Context) ([]Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listings, nil
}

func (f *fakeAPI) GetTokenDetails(ctx context.Context, pairID string) (*TokenDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[pairID]++
	if err, ok := f.detailErrs[pairID]; ok {
		return nil, err
	}
	details, ok := f.details[pairID]
	if !ok {
		return nil, errors.New("no data")
	}
	return details, nil
}

func (f *fakeAPI) detailCallCount(pairID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls[pairID]
}

// fakeNotifier records sent alerts.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) Send(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	appLogger, err := logger.NewLogger(logger.Config{Level: "error", Environment: "test"})
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return appLogger
}
