package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SecurityEvent is the append-only audit record of one validation.
type SecurityEvent struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UUID            string    `json:"uuid" gorm:"uniqueIndex;not null"`
	EventType       string    `json:"event_type" gorm:"index"`
	Severity        string    `json:"severity" gorm:"index;not null"`
	Action          string    `json:"action" gorm:"not null"`
	UserID          string    `json:"user_id" gorm:"index;not null"`
	SessionID       string    `json:"session_id"`
	InputText       string    `json:"input_text" gorm:"type:text"`
	PatternsMatched string    `json:"patterns_matched" gorm:"type:text"`
	Fingerprint     string    `json:"fingerprint" gorm:"index"`
	Metadata        string    `json:"metadata" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (e *SecurityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	return nil
}

// PatternIDs decodes PatternsMatched.
func (e SecurityEvent) PatternIDs() ([]string, error) {
	if e.PatternsMatched == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(e.PatternsMatched), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
