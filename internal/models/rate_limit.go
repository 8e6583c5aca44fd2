package models

import "time"

// RateLimitRecord snapshots one identity's request window.
type RateLimitRecord struct {
	UserID         string     `json:"user_id" gorm:"primaryKey"`
	RequestCount   int        `json:"request_count" gorm:"not null;default:0"`
	WindowStart    time.Time  `json:"window_start"`
	LockoutUntil   *time.Time `json:"lockout_until,omitempty"`
	FailedAttempts int        `json:"failed_attempts" gorm:"not null;default:0"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LockedOut reports whether the identity is locked out at now.
func (r RateLimitRecord) LockedOut(now time.Time) bool {
	return r.LockoutUntil != nil && now.Before(*r.LockoutUntil)
}
