package models

// All lists every persisted model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&SecurityEvent{},
		&UserReputation{},
		&RateLimitRecord{},
		&AttackPattern{},
		&NotificationLog{},
	}
}
