// Package retention purges old audit events on a schedule.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/sentinel/internal/logger"
)

// Purger deletes events older than days and reports how many went.
type Purger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// Scheduler runs a purge on a cron spec.
type Scheduler struct {
	Cron    *cron.Cron
	purger  Purger
	days    int
	timeout time.Duration
}

// NewScheduler registers the purge job. A days value of zero registers
// nothing, since there is nothing to purge.
func NewScheduler(p Purger, days int, spec string) (*Scheduler, error) {
	s := &Scheduler{
		Cron:    cron.New(),
		purger:  p,
		days:    days,
		timeout: 5 * time.Minute,
	}
	if days <= 0 {
		return s, nil
	}
	if _, err := s.Cron.AddFunc(spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.WithFields(logrus.Fields{"component": "retention", "error": err.Error()}).Error("retention purge failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce purges immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.purger.PurgeOlderThan(ctx, s.days)
	if err != nil {
		return 0, err
	}
	logger.WithFields(logrus.Fields{"component": "retention", "days": s.days, "purged": n}).Info("retention purge complete")
	return n, nil
}

// Start begins the schedule.
func (s *Scheduler) Start() { s.Cron.Start() }

// Stop halts the schedule and waits for a running purge.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
}
