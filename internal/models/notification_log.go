package models

import "time"

// Delivery statuses for NotificationLog.Status.
const (
	DeliverySuccess = "success"
	DeliveryFailure = "failure"
)

// NotificationLog is one channel delivery attempt for an event.
type NotificationLog struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	EventID   uint          `json:"event_id" gorm:"not null;index"`
	Event     SecurityEvent `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT"`
	Channel   string        `json:"channel" gorm:"not null"`
	Severity  string        `json:"severity"`
	Message   string        `json:"message" gorm:"type:text"`
	Status    string        `json:"status" gorm:"not null"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
