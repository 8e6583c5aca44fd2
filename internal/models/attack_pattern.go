package models

import "time"

// AttackPattern counts how often a catalog expression has matched.
type AttackPattern struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Pattern      string     `json:"pattern" gorm:"uniqueIndex;not null"`
	PatternID    string     `json:"pattern_id" gorm:"index"`
	Module       string     `json:"module"`
	Category     string     `json:"category" gorm:"index"`
	Severity     string     `json:"severity"`
	TimesMatched int64      `json:"times_matched" gorm:"not null;default:0"`
	LastMatched  *time.Time `json:"last_matched,omitempty"`
	IsCustom     bool       `json:"is_custom" gorm:"default:false"`
	Enabled      bool       `json:"enabled" gorm:"default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
