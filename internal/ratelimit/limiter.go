// Package ratelimit tracks fixed request windows per identity and escalates
// repeated blocks into a timed lockout.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Wikid82/sentinel/internal/cache"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/models"
)

// Backend restores windows that outlive a process restart. GetRateLimit
// returns nil, nil for an unknown identity.
type Backend interface {
	GetRateLimit(ctx context.Context, userID string) (*models.RateLimitRecord, error)
	SaveRateLimit(ctx context.Context, rec *models.RateLimitRecord) error
}

// Status is the outcome of counting one request.
type Status struct {
	Limited bool
	Reason  string
	Record  models.RateLimitRecord
}

// Pending is a queued window write. Its Flush stores the identity's latest
// window at the time it runs.
type Pending = cache.Pending[models.RateLimitRecord]

type entry = cache.Entry[models.RateLimitRecord]

// Limiter is safe for concurrent use. Windows live in a bounded LRU; one
// identity's updates are serialized and nothing holds a global lock while
// the backend is read.
type Limiter struct {
	cfg     config.RateLimitConfig
	backend Backend
	now     func() time.Time
	records *cache.Map[models.RateLimitRecord]
}

// New returns a Limiter. backend may be nil.
func New(cfg config.RateLimitConfig, backend Backend) *Limiter {
	return &Limiter{
		cfg:     cfg,
		backend: backend,
		now:     time.Now,
		records: cache.New[models.RateLimitRecord](cfg.CacheSize),
	}
}

// Enabled reports whether requests are counted at all.
func (l *Limiter) Enabled() bool { return l != nil && l.cfg.Enabled }

// Cached is the number of windows held in memory.
func (l *Limiter) Cached() int { return l.records.Len() }

// load fills e on first use. Caller holds e's lock. A backend failure
// starts a fresh window.
func (l *Limiter) load(ctx context.Context, e *entry, userID string, now time.Time) {
	if e.Loaded {
		return
	}
	e.Value = models.RateLimitRecord{UserID: userID, WindowStart: now}
	if l.backend != nil {
		if stored, err := l.backend.GetRateLimit(ctx, userID); err == nil && stored != nil {
			e.Value = *stored
		}
	}
	e.Loaded, e.Synced = true, now
}

// Hit counts one request and reports whether it is over budget or inside a
// lockout.
func (l *Limiter) Hit(ctx context.Context, userID string) Status {
	if !l.Enabled() {
		return Status{}
	}
	now := l.now()

	e := l.records.Acquire(userID)
	defer l.records.Release(userID, e)
	e.Lock()
	defer e.Unlock()
	l.load(ctx, e, userID, now)
	rec := &e.Value

	if rec.LockedOut(now) {
		return Status{
			Limited: true,
			Reason:  fmt.Sprintf("rate limit exceeded: locked out until %s", rec.LockoutUntil.UTC().Format(time.RFC3339)),
			Record:  *rec,
		}
	}
	if now.Sub(rec.WindowStart) >= l.cfg.Window {
		rec.WindowStart = now
		rec.RequestCount = 0
	}
	rec.RequestCount++
	rec.UpdatedAt = now
	e.Touch()

	st := Status{Record: *rec}
	if rec.RequestCount > l.cfg.RequestsPerMinute {
		st.Limited = true
		st.Reason = fmt.Sprintf("rate limit exceeded: %d requests in %s (limit %d)", rec.RequestCount, l.cfg.Window, l.cfg.RequestsPerMinute)
	}
	return st
}

// Outcome feeds a decision back. Consecutive blocking decisions reaching the
// lockout threshold start a lockout; a non-blocking one resets the streak.
// With a backend it also returns the write to queue.
func (l *Limiter) Outcome(ctx context.Context, userID string, blocked bool) (models.RateLimitRecord, *Pending) {
	if !l.Enabled() {
		return models.RateLimitRecord{}, nil
	}
	now := l.now()

	e := l.records.Acquire(userID)
	e.Lock()
	l.load(ctx, e, userID, now)
	rec := &e.Value

	if !blocked {
		rec.FailedAttempts = 0
	} else {
		rec.FailedAttempts++
		if rec.FailedAttempts >= l.cfg.LockoutThreshold && !rec.LockedOut(now) {
			until := now.Add(l.cfg.LockoutDuration)
			rec.LockoutUntil = &until
			rec.FailedAttempts = 0
		}
	}
	rec.UpdatedAt = now
	e.Touch()
	out := *rec
	e.Unlock()

	if l.backend == nil {
		l.records.Release(userID, e)
		return out, nil
	}
	return out, l.records.NewPending(userID, e, l.save)
}

func (l *Limiter) save(ctx context.Context, rec models.RateLimitRecord) error {
	return l.backend.SaveRateLimit(ctx, &rec)
}

// Snapshot returns the tracked window for userID, if any.
func (l *Limiter) Snapshot(userID string) (models.RateLimitRecord, bool) {
	if l == nil {
		return models.RateLimitRecord{}, false
	}
	e, ok := l.records.Peek(userID)
	if !ok {
		return models.RateLimitRecord{}, false
	}
	e.Lock()
	defer e.Unlock()
	if !e.Loaded {
		return models.RateLimitRecord{}, false
	}
	return e.Value, true
}
