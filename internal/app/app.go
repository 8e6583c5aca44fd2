// Package app assembles the validation engine and its backing services
// from configuration. The API server and the operator CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/engine"
	"github.com/Wikid82/sentinel/internal/geoip"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/notify"
	"github.com/Wikid82/sentinel/internal/reputation"
	"github.com/Wikid82/sentinel/internal/services"
)

// BackendRedis selects the shared Redis reputation store.
const BackendRedis = "redis"

// App holds the wired services. Close releases them in reverse order.
type App struct {
	Config      config.Config
	DB          *gorm.DB
	Audit       *services.AuditService
	Reputations *services.ReputationService
	Engine      *engine.Engine

	closers []func() error
}

// New opens the database, the reputation backend and the optional ASN
// database, then builds the engine.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{
		Config:      cfg,
		DB:          db,
		Audit:       services.NewAuditService(db),
		Reputations: services.NewReputationService(db),
	}
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	deps := engine.Deps{
		Audit:      a.Audit,
		Reputation: a.Reputations,
		RateLimits: a.Reputations,
	}

	if cfg.Reputation.Backend == BackendRedis {
		rb, err := reputation.NewRedisBackend(ctx, cfg.Reputation.Redis)
		if err != nil {
			_ = a.release()
			return nil, err
		}
		a.closers = append(a.closers, rb.Close)
		deps.Reputation = rb
		logger.Log().WithField("addr", cfg.Reputation.Redis.Addr).Info("using redis reputation backend")
	}

	if path := cfg.GeoIP.ASNDatabase; path != "" {
		asn, err := geoip.OpenASN(path)
		if err != nil {
			logger.Log().WithError(err).Warn("ASN enrichment disabled")
		} else {
			a.closers = append(a.closers, asn.Close)
			deps.ASN = asn
		}
	}

	if cfg.Notifications.Enabled {
		d, err := notify.New(cfg.Notifications)
		if err != nil {
			_ = a.release()
			return nil, fmt.Errorf("notifications: %w", err)
		}
		deps.Notifier = d
	}

	e, err := engine.New(cfg, deps)
	if err != nil {
		_ = a.release()
		return nil, err
	}
	a.Engine = e
	return a, nil
}

// Close drains the engine's queue and alerts, then releases backends.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Engine != nil {
		errs = append(errs, a.Engine.Close(ctx))
	}
	errs = append(errs, a.release())
	return errors.Join(errs...)
}

func (a *App) release() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
