package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelsTestDB(t *testing.T) *gorm.DB {
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestSecurityEvent_BeforeCreate(t *testing.T) {
	db := setupModelsTestDB(t)

	t.Run("generates UUID when empty", func(t *testing.T) {
		ev := &SecurityEvent{Severity: "LOW", Action: "log", UserID: "u1"}
		require.NoError(t, db.Create(ev).Error)
		assert.Len(t, ev.UUID, 36)
	})

	t.Run("keeps existing UUID", func(t *testing.T) {
		ev := &SecurityEvent{UUID: "fixed-uuid", Severity: "LOW", Action: "log", UserID: "u1"}
		require.NoError(t, db.Create(ev).Error)
		assert.Equal(t, "fixed-uuid", ev.UUID)
	})
}

func TestSecurityEvent_PatternIDs(t *testing.T) {
	ev := SecurityEvent{PatternsMatched: `["cmd-rm-rf","cmd-op-and-or"]`}
	ids, err := ev.PatternIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd-rm-rf", "cmd-op-and-or"}, ids)

	ids, err = SecurityEvent{}.PatternIDs()
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = SecurityEvent{PatternsMatched: "not json"}.PatternIDs()
	assert.Error(t, err)
}

func TestNotificationLog_ForeignKey(t *testing.T) {
	db := setupModelsTestDB(t)
	err := db.Create(&NotificationLog{EventID: 999, Channel: "ops", Status: DeliverySuccess}).Error
	assert.Error(t, err)
}

func TestUserReputation_TrustCheckConstraint(t *testing.T) {
	db := setupModelsTestDB(t)
	assert.Error(t, db.Create(&UserReputation{UserID: "u1", TrustScore: 101}).Error)
	assert.NoError(t, db.Create(&UserReputation{UserID: "u2", TrustScore: 100}).Error)
}

func TestRateLimitRecord_LockedOut(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Minute)
	assert.True(t, RateLimitRecord{LockoutUntil: &until}.LockedOut(now))
	assert.False(t, RateLimitRecord{LockoutUntil: &until}.LockedOut(until.Add(time.Second)))
	assert.False(t, RateLimitRecord{}.LockedOut(now))
}
