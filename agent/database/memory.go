package database

import (
	"sort"
	"sync"
	"time"

	"dexscanner-monitor/agent/internal/models"
)

// MemoryStore is a mutex-guarded TokenStore used by tests and as the runtime
// fallback when no database is configured. Tracking state lives only for the
// process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	tokens  map[string]*models.Token
	samples map[string][]models.TokenPerformance
	checks  map[string]models.SecurityCheck
	alerted map[string]map[int]time.Time
	nowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:  make(map[string]*models.Token),
		samples: make(map[string][]models.TokenPerformance),
		checks:  make(map[string]models.SecurityCheck),
		alerted: make(map[string]map[int]time.Time),
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the clock used for window queries. Test hook.
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = now
}

func (s *MemoryStore) TokenExists(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[id]
	return ok, nil
}

func (s *MemoryStore) AddToken(token *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.ID]; ok {
		return ErrDuplicateToken
	}
	copied := *token
	s.tokens[token.ID] = &copied
	return nil
}

func (s *MemoryStore) AddPerformance(tokenID string, sample models.TokenPerformance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[tokenID]; !ok {
		return ErrUnknownToken
	}
	sample.TokenID = tokenID
	s.samples[tokenID] = append(s.samples[tokenID], sample)
	return nil
}

func (s *MemoryStore) UpsertSecurityCheck(tokenID string, check models.SecurityCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenID]
	if !ok {
		return ErrUnknownToken
	}
	check.TokenID = tokenID
	s.checks[tokenID] = check
	token.IsSafe = check.IsSafe()
	return nil
}

func (s *MemoryStore) SecurityCheckFor(tokenID string) (models.SecurityCheck, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	check, ok := s.checks[tokenID]
	return check, ok
}

func (s *MemoryStore) TokenByID(id string) (*models.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[id]
	if !ok {
		return nil, false
	}
	copied := *token
	return &copied, true
}

func (s *MemoryStore) PerformanceHistory(tokenID string, since time.Duration) ([]models.TokenPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threshold := s.nowFunc().Add(-since)
	var out []models.TokenPerformance
	for _, sample := range s.samples[tokenID] {
		if !sample.Timestamp.Before(threshold) {
			out = append(out, sample)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) TrackedTokens(within time.Duration) ([]TrackedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threshold := s.nowFunc().Add(-within)
	var out []TrackedToken
	for _, token := range s.tokens {
		if !token.DetectedAt.Before(threshold) {
			out = append(out, TrackedToken{ID: token.ID, PairName: token.PairName, DetectedAt: token.DetectedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}

func (s *MemoryStore) MarkCheckpointAlerted(tokenID string, checkpointHours int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perToken, ok := s.alerted[tokenID]
	if !ok {
		perToken = make(map[int]time.Time)
		s.alerted[tokenID] = perToken
	}
	if _, already := perToken[checkpointHours]; already {
		return false, nil
	}
	perToken[checkpointHours] = s.nowFunc()
	return true, nil
}
