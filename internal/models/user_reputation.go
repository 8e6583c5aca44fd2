package models

import "time"

// UserReputation is the mutable per-identity trust record.
type UserReputation struct {
	UserID          string     `json:"user_id" gorm:"primaryKey"`
	TrustScore      int        `json:"trust_score" gorm:"not null;check:trust_score >= 0 AND trust_score <= 100"`
	TotalRequests   int64      `json:"total_requests" gorm:"not null;default:0"`
	BlockedAttempts int64      `json:"blocked_attempts" gorm:"not null;default:0"`
	LastViolation   *time.Time `json:"last_violation,omitempty"`
	Allowlisted     bool       `json:"allowlisted" gorm:"not null;default:false"`
	Blocklisted     bool       `json:"blocklisted" gorm:"not null;default:false"`
	Notes           string     `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
