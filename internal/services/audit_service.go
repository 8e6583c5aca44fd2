package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/security"
)

// AuditService persists and reports on validation events, notification
// delivery logs and attack-pattern counters.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService returns an AuditService using the provided DB
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// EventFilter narrows ListEvents. Limit is required.
type EventFilter struct {
	UserID   string
	Severity string
	Since    time.Time
	Limit    int
}

// RecordEvent validates and inserts a SecurityEvent.
func (s *AuditService) RecordEvent(ctx context.Context, ev *models.SecurityEvent) error {
	const op = "record event"
	if err := checkSeverity(op, ev.Severity); err != nil {
		return err
	}
	if err := checkAction(op, ev.Action); err != nil {
		return err
	}
	if strings.TrimSpace(ev.UserID) == "" {
		return invalid(ErrInvalidEvent, op, "user_id", "must not be empty")
	}
	return s.db.WithContext(ctx).Create(ev).Error
}

// ListEvents returns the newest events matching f.
func (s *AuditService) ListEvents(ctx context.Context, f EventFilter) ([]models.SecurityEvent, error) {
	const op = "list events"
	if err := checkLimit(op, f.Limit); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(f.Limit)
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Severity != "" {
		sev := strings.ToUpper(f.Severity)
		if err := checkSeverity(op, sev); err != nil {
			return nil, err
		}
		q = q.Where("severity = ?", sev)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}

	var events []models.SecurityEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent loads one event by UUID.
func (s *AuditService) GetEvent(ctx context.Context, uuid string) (*models.SecurityEvent, error) {
	var ev models.SecurityEvent
	if err := s.db.WithContext(ctx).Where("uuid = ?", uuid).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Count is one bucket of an aggregate.
type Count struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Stats summarises events since a point in time.
type Stats struct {
	Since       time.Time        `json:"since"`
	Total       int64            `json:"total"`
	Blocked     int64            `json:"blocked"`
	UniqueUsers int64            `json:"unique_users"`
	BySeverity  map[string]int64 `json:"by_severity"`
	ByAction    map[string]int64 `json:"by_action"`
	TopPatterns []Count          `json:"top_patterns"`
}

// Stats aggregates events created at or after since.
func (s *AuditService) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	events := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.SecurityEvent{}).Where("created_at >= ?", since)
	}

	st := &Stats{Since: since, BySeverity: map[string]int64{}, ByAction: map[string]int64{}}
	if err := events().Count(&st.Total).Error; err != nil {
		return nil, err
	}
	if err := events().Where("action IN ?", []string{string(security.ActionBlock), string(security.ActionBlockAndNotify)}).Count(&st.Blocked).Error; err != nil {
		return nil, err
	}
	if err := events().Distinct("user_id").Count(&st.UniqueUsers).Error; err != nil {
		return nil, err
	}

	var rows []Count
	if err := events().Select("severity AS name, COUNT(*) AS count").Group("severity").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		st.BySeverity[r.Name] = r.Count
	}
	rows = nil
	if err := events().Select("action AS name, COUNT(*) AS count").Group("action").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		st.ByAction[r.Name] = r.Count
	}

	if err := s.db.WithContext(ctx).Model(&models.AttackPattern{}).
		Select("pattern_id AS name, times_matched AS count").
		Where("last_matched >= ?", since).
		Order("times_matched desc").Limit(5).
		Scan(&st.TopPatterns).Error; err != nil {
		return nil, err
	}
	return st, nil
}

// PurgeOlderThan deletes events older than days, along with their
// notification logs. Zero days is a no-op.
func (s *AuditService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, invalid(ErrInvalidRetention, "purge events", "days", "must not be negative")
	}
	if days == 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&models.SecurityEvent{}).Select("id").Where("created_at < ?", cutoff)
		if err := tx.Where("event_id IN (?)", old).Delete(&models.NotificationLog{}).Error; err != nil {
			return err
		}
		res := tx.Where("created_at < ?", cutoff).Delete(&models.SecurityEvent{})
		purged = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

// LogNotification records a delivery attempt against an existing event.
func (s *AuditService) LogNotification(ctx context.Context, entry *models.NotificationLog) error {
	const op = "log notification"
	if entry.Status != models.DeliverySuccess && entry.Status != models.DeliveryFailure {
		return invalid(ErrInvalidStatus, op, "status", "unknown status "+quote(entry.Status))
	}
	if entry.Severity != "" {
		if err := checkSeverity(op, entry.Severity); err != nil {
			return err
		}
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.SecurityEvent{}).Where("id = ?", entry.EventID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

// LogNotificationForEvent resolves the event by UUID and records the attempt.
func (s *AuditService) LogNotificationForEvent(ctx context.Context, eventUUID string, entry *models.NotificationLog) error {
	ev, err := s.GetEvent(ctx, eventUUID)
	if err != nil {
		return err
	}
	entry.EventID = ev.ID
	return s.LogNotification(ctx, entry)
}

// ListNotifications returns delivery attempts for an event, oldest first.
func (s *AuditService) ListNotifications(ctx context.Context, eventUUID string) ([]models.NotificationLog, error) {
	ev, err := s.GetEvent(ctx, eventUUID)
	if err != nil {
		return nil, err
	}
	var logs []models.NotificationLog
	if err := s.db.WithContext(ctx).Where("event_id = ?", ev.ID).Order("id asc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// PatternKey is the text AttackPattern rows are keyed by.
func PatternKey(p security.SecurityPattern) string {
	if expr := p.Matcher.String(); expr != "" {
		return expr
	}
	return "structured:" + p.ID
}

// RecordPatternMatch bumps the counter for p, creating the row on first use.
func (s *AuditService) RecordPatternMatch(ctx context.Context, module string, p security.SecurityPattern, at time.Time) error {
	row := models.AttackPattern{
		Pattern:      PatternKey(p),
		PatternID:    p.ID,
		Module:       module,
		Category:     p.Category,
		Severity:     p.Severity.String(),
		TimesMatched: 1,
		LastMatched:  &at,
		Enabled:      p.Enabled,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pattern"}},
		DoUpdates: clause.Assignments(map[string]any{
			"times_matched": gorm.Expr("times_matched + 1"),
			"last_matched":  at,
			"updated_at":    at,
		}),
	}).Create(&row).Error
}

// ListAttackPatterns returns the most frequently matched patterns.
func (s *AuditService) ListAttackPatterns(ctx context.Context, limit int) ([]models.AttackPattern, error) {
	if err := checkLimit("list attack patterns", limit); err != nil {
		return nil, err
	}
	var rows []models.AttackPattern
	if err := s.db.WithContext(ctx).Order("times_matched desc, pattern_id asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
