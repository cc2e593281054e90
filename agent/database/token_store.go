package database

import (
	"errors"
	"time"

	"dexscanner-monitor/agent/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the postgres-backed TokenStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) TokenExists(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Token{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) AddToken(token *models.Token) error {
	if err := s.db.Create(token).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (s *GormStore) AddPerformance(tokenID string, sample models.TokenPerformance) error {
	sample.TokenID = tokenID
	if err := s.db.Create(&sample).Error; err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownToken
		}
		return err
	}
	return nil
}

func (s *GormStore) UpsertSecurityCheck(tokenID string, check models.SecurityCheck) error {
	check.TokenID = tokenID

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			UpdateAll: true,
		}).Create(&check).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Token{}).Where("id = ?", tokenID).Update("is_safe", check.IsSafe())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUnknownToken
		}
		return nil
	})
}

func (s *GormStore) PerformanceHistory(tokenID string, since time.Duration) ([]models.TokenPerformance, error) {
	threshold := time.Now().Add(-since)

	var samples []models.TokenPerformance
	err := s.db.
		Where("token_id = ? AND timestamp >= ?", tokenID, threshold).
		Order("timestamp ASC").
		Find(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *GormStore) TrackedTokens(within time.Duration) ([]TrackedToken, error) {
	threshold := time.Now().Add(-within)

	var tokens []TrackedToken
	err := s.db.Model(&models.Token{}).
		Select("id", "pair_name", "detected_at").
		Where("detected_at >= ?", threshold).
		Order("detected_at ASC").
		Scan(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *GormStore) MarkCheckpointAlerted(tokenID string, checkpointHours int) (bool, error) {
	alert := models.CheckpointAlert{
		TokenID:         tokenID,
		CheckpointHours: checkpointHours,
		SentAt:          time.Now(),
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
