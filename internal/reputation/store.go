// Package reputation keeps per-identity trust records with serialized
// read-modify-write per user and a pluggable durable backend.
package reputation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/sentinel/internal/cache"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/security"
	"github.com/Wikid82/sentinel/internal/util"
)

// Backend loads and stores reputations. Load returns nil, nil for an
// identity without a record. SaveStats writes trust and counters only;
// SaveFlags writes list membership and notes only, so decisions and
// operator edits made elsewhere never overwrite each other.
type Backend interface {
	Load(ctx context.Context, userID string) (*models.UserReputation, error)
	SaveStats(ctx context.Context, rep *models.UserReputation) error
	SaveFlags(ctx context.Context, rep *models.UserReputation) error
}

type entry = cache.Entry[models.UserReputation]

// Store caches reputations in a bounded LRU. Updates to one identity are
// serialized; different identities proceed in parallel. Cached records
// older than the refresh interval are reconciled with the backend so edits
// from other processes reach this one.
type Store struct {
	backend Backend
	cfg     config.ReputationConfig
	cache   *cache.Map[models.UserReputation]
	now     func() time.Time
}

// NewStore builds a Store over backend. A nil backend keeps everything in
// memory.
func NewStore(backend Backend, cfg config.ReputationConfig) *Store {
	return &Store{
		backend: backend,
		cfg:     cfg,
		cache:   cache.New[models.UserReputation](cfg.CacheSize),
		now:     time.Now,
	}
}

// Backend returns the durable backend, which may be nil.
func (s *Store) Backend() Backend { return s.backend }

// Cached is the number of identities held in memory.
func (s *Store) Cached() int { return s.cache.Len() }

// Neutral is the record used for identities with no history.
func (s *Store) Neutral(userID string) models.UserReputation {
	return models.UserReputation{UserID: userID, TrustScore: s.cfg.DefaultTrust}
}

func (s *Store) stale(e *entry, now time.Time) bool {
	if !e.Loaded {
		return true
	}
	if s.backend == nil || s.cfg.RefreshInterval <= 0 {
		return false
	}
	return now.Sub(e.Synced) >= s.cfg.RefreshInterval
}

// load fills or refreshes e from the backend. Caller holds e's lock. A
// failed first load leaves e unloaded and hands back the neutral record so
// a later call retries; a failed refresh keeps serving the cached record.
// A refresh adopts the stored record whole when nothing local is unsaved,
// and only the operator flags otherwise.
func (s *Store) load(ctx context.Context, e *entry, userID string) (models.UserReputation, error) {
	now := s.now()
	if !s.stale(e, now) {
		return e.Value, nil
	}
	if s.backend == nil {
		e.Value, e.Loaded, e.Synced = s.Neutral(userID), true, now
		return e.Value, nil
	}

	stored, err := s.backend.Load(ctx, userID)
	if err != nil {
		if e.Loaded {
			logger.WithFields(logrus.Fields{
				"component": "reputation",
				"user_id":   util.SanitizeForLog(userID),
				"error":     err.Error(),
			}).Warn("reputation refresh failed, serving cached record")
			return e.Value, nil
		}
		return s.Neutral(userID), fmt.Errorf("load reputation %s: %w", userID, err)
	}

	switch {
	case stored == nil && !e.Loaded:
		e.Value = s.Neutral(userID)
	case stored == nil:
		// nothing persisted yet; keep the local record
	case !e.Loaded || !e.Dirty():
		e.Value = *stored
	default:
		e.Value.Allowlisted = stored.Allowlisted
		e.Value.Blocklisted = stored.Blocklisted
		e.Value.Notes = stored.Notes
	}
	e.Loaded, e.Synced = true, now
	return e.Value, nil
}

func checkUser(op, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return security.NewPreconditionError(op, "user_id", "must not be empty")
	}
	return nil
}

// Get returns a copy of the identity's reputation. On a backend failure it
// returns the neutral record together with the error; callers on the
// decision path use the record and log the error.
func (s *Store) Get(ctx context.Context, userID string) (models.UserReputation, error) {
	if err := checkUser("get reputation", userID); err != nil {
		return models.UserReputation{}, err
	}
	e := s.cache.Acquire(userID)
	defer s.cache.Release(userID, e)
	e.Lock()
	defer e.Unlock()
	return s.load(ctx, e, userID)
}

// update applies fn to the identity's record under its lock. Trust is
// clamped to 0..100 after fn runs. On success the caller owns the returned
// reference to e.
func (s *Store) update(ctx context.Context, op, userID string, fn func(*models.UserReputation)) (*entry, models.UserReputation, error) {
	if err := checkUser(op, userID); err != nil {
		return nil, models.UserReputation{}, err
	}
	e := s.cache.Acquire(userID)
	e.Lock()
	defer e.Unlock()

	rep, err := s.load(ctx, e, userID)
	if err != nil {
		s.cache.Release(userID, e)
		return nil, rep, err
	}
	fn(&rep)
	rep.TrustScore = clamp(rep.TrustScore)
	rep.UpdatedAt = s.now()
	e.Value = rep
	e.Touch()
	return e, rep, nil
}

// Update applies fn to the identity's record and returns the result. The
// change stays in memory; use Record or SetFlags for persisted updates.
func (s *Store) Update(ctx context.Context, userID string, fn func(*models.UserReputation)) (models.UserReputation, error) {
	e, rep, err := s.update(ctx, "update reputation", userID, fn)
	if err != nil {
		return rep, err
	}
	s.cache.Release(userID, e)
	return rep, nil
}

// Pending is a queued reputation write. Its Flush stores the identity's
// latest trust and counters at the time it runs.
type Pending = cache.Pending[models.UserReputation]

// Record folds one decision into the identity's reputation. With a backend
// it also returns the write to queue; the record stays resident until that
// write is flushed or released.
func (s *Store) Record(ctx context.Context, userID string, sev security.Severity, action security.Action) (models.UserReputation, *Pending, error) {
	now := s.now()
	e, rep, err := s.update(ctx, "record reputation", userID, func(rep *models.UserReputation) {
		rep.TotalRequests++
		if sev == security.SeveritySafe {
			rep.TrustScore += s.cfg.RecoveryPerSafe
		} else if p := s.penalty(sev); p > 0 {
			rep.TrustScore -= p
			rep.LastViolation = &now
		}
		if action.Blocks() {
			rep.BlockedAttempts++
		}
	})
	if err != nil {
		return rep, nil, err
	}
	if s.backend == nil {
		s.cache.Release(userID, e)
		return rep, nil, nil
	}
	return rep, s.cache.NewPending(userID, e, s.saveStats), nil
}

func (s *Store) saveStats(ctx context.Context, rep models.UserReputation) error {
	return s.backend.SaveStats(ctx, &rep)
}

func (s *Store) penalty(sev security.Severity) int {
	switch sev {
	case security.SeverityMedium:
		return s.cfg.Penalties.Medium
	case security.SeverityHigh:
		return s.cfg.Penalties.High
	case security.SeverityCritical:
		return s.cfg.Penalties.Critical
	}
	return 0
}

// Flags is an operator edit of an identity's list membership.
type Flags struct {
	Allowlisted *bool
	Blocklisted *bool
	Notes       *string
	TrustScore  *int
}

// SetFlags applies an operator edit and writes it through to the backend
// immediately. A trust override is written with the counters.
func (s *Store) SetFlags(ctx context.Context, userID string, f Flags) (models.UserReputation, error) {
	if f.TrustScore != nil && (*f.TrustScore < 0 || *f.TrustScore > 100) {
		return models.UserReputation{}, security.NewPreconditionError("set reputation", "trust_score", "must be between 0 and 100")
	}
	if err := checkUser("set reputation", userID); err != nil {
		return models.UserReputation{}, err
	}
	e := s.cache.Acquire(userID)
	defer s.cache.Release(userID, e)

	e.Lock()
	rep, err := s.load(ctx, e, userID)
	if err != nil {
		e.Unlock()
		return rep, err
	}
	if f.Allowlisted != nil {
		rep.Allowlisted = *f.Allowlisted
	}
	if f.Blocklisted != nil {
		rep.Blocklisted = *f.Blocklisted
	}
	if f.Notes != nil {
		rep.Notes = *f.Notes
	}
	if f.TrustScore != nil {
		rep.TrustScore = *f.TrustScore
		e.Touch()
	}
	rep.UpdatedAt = s.now()
	e.Value = rep
	if s.backend != nil {
		err = s.backend.SaveFlags(ctx, &rep)
	}
	e.Unlock()
	if err != nil {
		return rep, err
	}

	if f.TrustScore != nil && s.backend != nil {
		if err := e.Flush(ctx, s.saveStats); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
