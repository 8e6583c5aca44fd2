package reputation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/security"
	"github.com/Wikid82/sentinel/internal/services"
)

type failingBackend struct{ loads int }

func (f *failingBackend) Load(context.Context, string) (*models.UserReputation, error) {
	f.loads++
	return nil, errors.New("store unreachable")
}

func (f *failingBackend) SaveStats(context.Context, *models.UserReputation) error {
	return errors.New("store unreachable")
}

func (f *failingBackend) SaveFlags(context.Context, *models.UserReputation) error {
	return errors.New("store unreachable")
}

func TestStore_NeutralDefault(t *testing.T) {
	s := NewStore(nil, config.Default().Reputation)
	rep, err := s.Get(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, 50, rep.TrustScore)
	assert.False(t, rep.Blocklisted)

	_, err = s.Get(context.Background(), " ")
	assert.ErrorIs(t, err, security.ErrPrecondition)
}

func TestStore_BackendFailureFallsBack(t *testing.T) {
	b := &failingBackend{}
	s := NewStore(b, config.Default().Reputation)

	rep, err := s.Get(context.Background(), "u1")
	assert.Error(t, err)
	assert.Equal(t, 50, rep.TrustScore)

	_, _ = s.Get(context.Background(), "u1")
	assert.Equal(t, 2, b.loads, "failed loads are not cached")
}

func TestStore_RecordDynamics(t *testing.T) {
	s := NewStore(nil, config.Default().Reputation)
	ctx := context.Background()

	rep, pending, err := s.Record(ctx, "u1", security.SeveritySafe, security.ActionAllow)
	require.NoError(t, err)
	assert.Nil(t, pending, "nothing to write without a backend")
	assert.Equal(t, 51, rep.TrustScore)
	assert.Nil(t, rep.LastViolation)

	rep, _, err = s.Record(ctx, "u1", security.SeverityCritical, security.ActionBlockAndNotify)
	require.NoError(t, err)
	assert.Equal(t, 26, rep.TrustScore)
	assert.Equal(t, int64(2), rep.TotalRequests)
	assert.Equal(t, int64(1), rep.BlockedAttempts)
	assert.NotNil(t, rep.LastViolation)

	rep, _, err = s.Record(ctx, "u1", security.SeverityLow, security.ActionLog)
	require.NoError(t, err)
	assert.Equal(t, 26, rep.TrustScore, "LOW carries no penalty")

	for i := 0; i < 3; i++ {
		rep, _, err = s.Record(ctx, "u1", security.SeverityCritical, security.ActionBlock)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, rep.TrustScore)
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	s := NewStore(nil, config.Default().Reputation)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = s.Record(ctx, "same", security.SeverityLow, security.ActionLog)
		}()
	}
	wg.Wait()

	rep, err := s.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, int64(200), rep.TotalRequests)
}

func TestStore_SetFlagsWritesThrough(t *testing.T) {
	svc := services.NewReputationService(database.OpenTestDB(t))
	s := NewStore(svc, config.Default().Reputation)
	ctx := context.Background()

	yes := true
	note := "abuse report"
	rep, err := s.SetFlags(ctx, "mallory", Flags{Blocklisted: &yes, Notes: &note})
	require.NoError(t, err)
	assert.True(t, rep.Blocklisted)

	stored, err := svc.Get(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, stored.Blocklisted)
	assert.Equal(t, "abuse report", stored.Notes)

	bad := 120
	_, err = s.SetFlags(ctx, "mallory", Flags{TrustScore: &bad})
	assert.ErrorIs(t, err, security.ErrPrecondition)

	// a fresh store sees the persisted record
	fresh := NewStore(svc, config.Default().Reputation)
	rep, err = fresh.Get(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, rep.Blocklisted)
}

func TestStore_SaveFailurePropagates(t *testing.T) {
	b := &failingBackend{}
	s := NewStore(b, config.Default().Reputation)
	_, _, err := s.Record(context.Background(), "u", security.SeverityLow, security.ActionLog)
	assert.Error(t, err, "the first load fails")

	_, err = s.SetFlags(context.Background(), "u", Flags{})
	assert.Error(t, err)
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)} }

func record(t *testing.T, s *Store, userID string, sev security.Severity, action security.Action) *Pending {
	t.Helper()
	_, pending, err := s.Record(context.Background(), userID, sev, action)
	require.NoError(t, err)
	require.NotNil(t, pending)
	return pending
}

// Two stores over one database stand in for the API server and the CLI.
func TestStore_OperatorEditsReachRunningStores(t *testing.T) {
	svc := services.NewReputationService(database.OpenTestDB(t))
	ctx := context.Background()
	cfg := config.Default().Reputation
	clk := newClock()

	engine := NewStore(svc, cfg)
	engine.now = clk.Now
	require.NoError(t, record(t, engine, "mallory", security.SeverityLow, security.ActionLog).Flush(ctx))

	cli := NewStore(svc, cfg)
	yes := true
	_, err := cli.SetFlags(ctx, "mallory", Flags{Blocklisted: &yes})
	require.NoError(t, err)

	// a decision queued before the refresh
	pending := record(t, engine, "mallory", security.SeverityHigh, security.ActionBlock)
	require.NoError(t, pending.Flush(ctx))

	stored, err := svc.Get(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, stored.Blocklisted, "stats writes never clear operator flags")
	assert.Equal(t, int64(2), stored.TotalRequests)

	clk.Advance(cfg.RefreshInterval)
	rep, err := engine.Get(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, rep.Blocklisted, "the running store picks up the edit")
	assert.Equal(t, int64(2), rep.TotalRequests)
}

func TestStore_RefreshKeepsUnsavedCounters(t *testing.T) {
	svc := services.NewReputationService(database.OpenTestDB(t))
	ctx := context.Background()
	cfg := config.Default().Reputation
	clk := newClock()

	engine := NewStore(svc, cfg)
	engine.now = clk.Now
	pending := record(t, engine, "u1", security.SeverityCritical, security.ActionBlock)

	note := "watch"
	_, err := NewStore(svc, cfg).SetFlags(ctx, "u1", Flags{Notes: &note})
	require.NoError(t, err)

	clk.Advance(cfg.RefreshInterval)
	rep, err := engine.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "watch", rep.Notes)
	assert.Equal(t, int64(1), rep.BlockedAttempts, "unsaved decisions survive a refresh")
	assert.Equal(t, 25, rep.TrustScore)

	require.NoError(t, pending.Flush(ctx))
	stored, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "watch", stored.Notes)
	assert.Equal(t, 25, stored.TrustScore)
}

func TestStore_TrustOverrideWritesThrough(t *testing.T) {
	svc := services.NewReputationService(database.OpenTestDB(t))
	ctx := context.Background()
	s := NewStore(svc, config.Default().Reputation)

	score := 90
	_, err := s.SetFlags(ctx, "u1", Flags{TrustScore: &score})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 90, stored.TrustScore)
}

func TestStore_FlushesOutOfOrderKeepLatest(t *testing.T) {
	svc := services.NewReputationService(database.OpenTestDB(t))
	ctx := context.Background()
	s := NewStore(svc, config.Default().Reputation)

	const n = 64
	pendings := make(chan *Pending, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, p, err := s.Record(ctx, "same", security.SeverityLow, security.ActionLog)
			assert.NoError(t, err)
			pendings <- p
		}()
	}
	wg.Wait()
	close(pendings)

	var flushers sync.WaitGroup
	for p := range pendings {
		if p == nil {
			continue
		}
		flushers.Add(1)
		go func() {
			defer flushers.Done()
			assert.NoError(t, p.Flush(ctx))
		}()
	}
	flushers.Wait()

	stored, err := svc.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.TotalRequests)
}

func TestStore_CacheIsBounded(t *testing.T) {
	svc := services.NewReputationService(database.OpenTestDB(t))
	ctx := context.Background()
	cfg := config.Default().Reputation
	cfg.CacheSize = 64
	s := NewStore(svc, cfg)

	var pendings []*Pending
	for i := 0; i < 500; i++ {
		pendings = append(pendings, record(t, s, fmt.Sprintf("user-%d", i), security.SeverityHigh, security.ActionBlock))
	}
	assert.Equal(t, 500, s.Cached(), "records with queued writes stay resident")

	for _, p := range pendings {
		require.NoError(t, p.Flush(ctx))
	}
	for i := 500; i < 1000; i++ {
		_, err := s.Get(ctx, fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, s.Cached(), 64)

	rep, err := s.Get(ctx, "user-0")
	require.NoError(t, err)
	assert.Equal(t, 40, rep.TrustScore, "evicted records reload from the backend")
	assert.Equal(t, int64(1), rep.BlockedAttempts)
}
