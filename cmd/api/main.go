package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Wikid82/sentinel/internal/api/routes"
	"github.com/Wikid82/sentinel/internal/app"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/retention"
	"github.com/Wikid82/sentinel/internal/server"
	"github.com/Wikid82/sentinel/internal/version"
)

const drainTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("SENTINEL_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	logger.Init(false, os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	out, closer := logger.Output(logger.Rotation{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer closer.Close()
	logger.Init(cfg.Logging.Debug, out)

	logger.Log().Infof("starting %s %s", version.Name, version.Full())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log().WithError(err).Fatal("initialise engine")
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := a.Close(drainCtx); err != nil {
			logger.Log().WithError(err).Warn("shutdown did not drain cleanly")
		}
	}()

	sched, err := retention.NewScheduler(a.Audit, cfg.Logging.RetentionDays, cfg.Logging.RetentionSchedule)
	if err != nil {
		logger.Log().WithError(err).Fatal("retention schedule")
	}
	sched.Start()
	defer sched.Stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	srv := server.New(routes.Deps{Engine: a.Engine, Audit: a.Audit, Metrics: registry}, cfg)
	logger.Log().WithField("port", cfg.HTTP.Port).Info("listening")
	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Error("server error")
	}
	logger.Log().Info("shutting down")
}
