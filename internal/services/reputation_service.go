package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Wikid82/sentinel/internal/models"
)

// ReputationService is the SQL store for reputations and rate-limit
// snapshots. It satisfies reputation.Backend.
type ReputationService struct {
	db *gorm.DB
}

// NewReputationService returns a ReputationService using the provided DB
func NewReputationService(db *gorm.DB) *ReputationService {
	return &ReputationService{db: db}
}

// ValidateReputation rejects records a store must never hold.
func ValidateReputation(rep *models.UserReputation) error {
	const op = "save reputation"
	switch {
	case strings.TrimSpace(rep.UserID) == "":
		return invalid(ErrInvalidReputation, op, "user_id", "must not be empty")
	case rep.TrustScore < 0 || rep.TrustScore > 100:
		return invalid(ErrInvalidReputation, op, "trust_score", "must be between 0 and 100")
	case rep.TotalRequests < 0:
		return invalid(ErrInvalidReputation, op, "total_requests", "must not be negative")
	case rep.BlockedAttempts < 0:
		return invalid(ErrInvalidReputation, op, "blocked_attempts", "must not be negative")
	}
	return nil
}

// Load returns the stored reputation, or nil when the user has none.
func (s *ReputationService) Load(ctx context.Context, userID string) (*models.UserReputation, error) {
	var rep models.UserReputation
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rep).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

// Get is Load for reporting callers, with absence as ErrReputationNotFound.
func (s *ReputationService) Get(ctx context.Context, userID string) (*models.UserReputation, error) {
	rep, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, ErrReputationNotFound
	}
	return rep, nil
}

// Columns written by the decision path and by operator edits. An upsert
// from one never overwrites the other's columns on an existing row.
var (
	reputationStatColumns = []string{"trust_score", "total_requests", "blocked_attempts", "last_violation", "updated_at"}
	reputationFlagColumns = []string{"allowlisted", "blocklisted", "notes", "updated_at"}
)

// Save validates and upserts every column of a reputation.
func (s *ReputationService) Save(ctx context.Context, rep *models.UserReputation) error {
	return s.upsert(ctx, rep, append(append([]string{}, reputationStatColumns...), reputationFlagColumns[:3]...))
}

// SaveStats upserts the trust score and counters. List flags and notes on
// an existing row are left alone.
func (s *ReputationService) SaveStats(ctx context.Context, rep *models.UserReputation) error {
	return s.upsert(ctx, rep, reputationStatColumns)
}

// SaveFlags upserts list membership and notes. Trust and counters on an
// existing row are left alone.
func (s *ReputationService) SaveFlags(ctx context.Context, rep *models.UserReputation) error {
	return s.upsert(ctx, rep, reputationFlagColumns)
}

func (s *ReputationService) upsert(ctx context.Context, rep *models.UserReputation, columns []string) error {
	if err := ValidateReputation(rep); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(rep).Error
}

// List returns reputations ordered by ascending trust.
func (s *ReputationService) List(ctx context.Context, limit int) ([]models.UserReputation, error) {
	if err := checkLimit("list reputations", limit); err != nil {
		return nil, err
	}
	var reps []models.UserReputation
	if err := s.db.WithContext(ctx).Order("trust_score asc, user_id asc").Limit(limit).Find(&reps).Error; err != nil {
		return nil, err
	}
	return reps, nil
}

// SaveRateLimit upserts a rate-limit window snapshot.
func (s *ReputationService) SaveRateLimit(ctx context.Context, rec *models.RateLimitRecord) error {
	const op = "save rate limit"
	switch {
	case strings.TrimSpace(rec.UserID) == "":
		return invalid(ErrInvalidReputation, op, "user_id", "must not be empty")
	case rec.RequestCount < 0:
		return invalid(ErrInvalidReputation, op, "request_count", "must not be negative")
	case rec.FailedAttempts < 0:
		return invalid(ErrInvalidReputation, op, "failed_attempts", "must not be negative")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(rec).Error
}

// GetRateLimit loads a stored window, or nil when none exists.
func (s *ReputationService) GetRateLimit(ctx context.Context, userID string) (*models.RateLimitRecord, error) {
	var rec models.RateLimitRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
