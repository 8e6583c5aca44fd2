package reputation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/services"
)

// RedisBackend shares reputations between engine instances. Each record is
// a hash under prefix+userID, so stats and flag writes touch disjoint
// fields.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to the configured server and pings it.
func NewRedisBackend(ctx context.Context, cfg config.RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisBackend{client: client, prefix: cfg.Prefix}, nil
}

// Close closes the client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) key(userID string) string {
	return b.prefix + userID
}

const (
	fieldTrust       = "trust_score"
	fieldRequests    = "total_requests"
	fieldBlocked     = "blocked_attempts"
	fieldViolation   = "last_violation"
	fieldAllowlisted = "allowlisted"
	fieldBlocklisted = "blocklisted"
	fieldNotes       = "notes"
	fieldCreated     = "created_at"
	fieldUpdated     = "updated_at"
)

func (b *RedisBackend) Load(ctx context.Context, userID string) (*models.UserReputation, error) {
	fields, err := b.client.HGetAll(ctx, b.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	rep, err := decodeReputation(userID, fields)
	if err != nil {
		return nil, fmt.Errorf("decode reputation %s: %w", userID, err)
	}
	return rep, nil
}

// SaveStats writes trust and counters. The flag fields are only seeded
// when the hash is new.
func (b *RedisBackend) SaveStats(ctx context.Context, rep *models.UserReputation) error {
	return b.save(ctx, rep, map[string]any{
		fieldTrust:     rep.TrustScore,
		fieldRequests:  rep.TotalRequests,
		fieldBlocked:   rep.BlockedAttempts,
		fieldViolation: formatTime(rep.LastViolation),
	}, map[string]any{
		fieldAllowlisted: rep.Allowlisted,
		fieldBlocklisted: rep.Blocklisted,
		fieldNotes:       rep.Notes,
	})
}

// SaveFlags writes list membership and notes. Trust and counters are only
// seeded when the hash is new.
func (b *RedisBackend) SaveFlags(ctx context.Context, rep *models.UserReputation) error {
	return b.save(ctx, rep, map[string]any{
		fieldAllowlisted: rep.Allowlisted,
		fieldBlocklisted: rep.Blocklisted,
		fieldNotes:       rep.Notes,
	}, map[string]any{
		fieldTrust:     rep.TrustScore,
		fieldRequests:  rep.TotalRequests,
		fieldBlocked:   rep.BlockedAttempts,
		fieldViolation: formatTime(rep.LastViolation),
	})
}

func (b *RedisBackend) save(ctx context.Context, rep *models.UserReputation, set, seed map[string]any) error {
	if err := services.ValidateReputation(rep); err != nil {
		return err
	}
	now := time.Now()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = now
	}
	rep.UpdatedAt = now
	set[fieldUpdated] = now.UTC().Format(time.RFC3339Nano)
	seed[fieldCreated] = rep.CreatedAt.UTC().Format(time.RFC3339Nano)

	key := b.key(rep.UserID)
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for field, v := range seed {
			pipe.HSetNX(ctx, key, field, v)
		}
		pipe.HSet(ctx, key, set)
		return nil
	})
	return err
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeReputation(userID string, fields map[string]string) (*models.UserReputation, error) {
	rep := &models.UserReputation{UserID: userID, Notes: fields[fieldNotes]}
	var err error
	if rep.TrustScore, err = strconv.Atoi(fields[fieldTrust]); err != nil {
		return nil, fmt.Errorf("%s: %w", fieldTrust, err)
	}
	for field, dst := range map[string]*int64{fieldRequests: &rep.TotalRequests, fieldBlocked: &rep.BlockedAttempts} {
		if *dst, err = strconv.ParseInt(fields[field], 10, 64); err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
	}
	for field, dst := range map[string]*bool{fieldAllowlisted: &rep.Allowlisted, fieldBlocklisted: &rep.Blocklisted} {
		if *dst, err = strconv.ParseBool(fields[field]); err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
	}
	for field, dst := range map[string]*time.Time{fieldCreated: &rep.CreatedAt, fieldUpdated: &rep.UpdatedAt} {
		if raw := fields[field]; raw != "" {
			if *dst, err = time.Parse(time.RFC3339Nano, raw); err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
		}
	}
	if raw := fields[fieldViolation]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fieldViolation, err)
		}
		rep.LastViolation = &t
	}
	return rep, nil
}
