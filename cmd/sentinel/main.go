// Command sentinel runs the change-feed transition processor and the
// due-task dispatcher against a local database.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldworks/sentinel/pkg/config"
	"github.com/fieldworks/sentinel/pkg/dispatch"
	"github.com/fieldworks/sentinel/pkg/feed"
	"github.com/fieldworks/sentinel/pkg/storage"
	"github.com/fieldworks/sentinel/pkg/transition"
	"github.com/fieldworks/sentinel/pkg/transitions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		log.Error("failed to load rules", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}

	store := storage.NewGormStore(db,
		storage.WithRegistrationForms(rules.RegistrationForms()...))
	if err := store.Migrate(context.Background()); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	impls := []transition.Transition{
		&transitions.Registration{
			Configs:   rules.Registrations,
			Schedules: rules.Schedules,
		},
		&transitions.AcceptReports{
			Reports: rules.PatientReports,
			Finder:  store,
			Audit:   store,
			Logger:  log,
		},
		&transitions.Alerts{
			Alerts:    rules.Alerts,
			Evaluator: transitions.NewExprEvaluator(),
		},
	}

	registryOpts := []transition.RegistryOption{transition.WithLogger(log)}
	if cfg.StrictRevisions {
		registryOpts = append(registryOpts, transition.StrictRevisions())
	}
	registry := transition.NewRegistry(rules.Transitions, impls, registryOpts...)
	log.Info("transition registry built", "enabled", registry.Len())

	pipeline := transition.NewPipeline(registry)
	pipeline.SetLogger(log)

	worker := feed.NewWorker(store, store, store, store, pipeline,
		feed.WithPollInterval(cfg.PollInterval),
		feed.WithProcessingDelay(cfg.ProcessingDelay),
		feed.WithProgressInterval(cfg.ProgressInterval),
		feed.WithBatchLimit(cfg.BatchLimit),
	)
	worker.SetLogger(log)

	recurrence := dispatch.Every(cfg.DispatchInterval)
	if cfg.DispatchAt != "" {
		recurrence, err = dispatch.At(cfg.DispatchAt)
		if err != nil {
			log.Error("invalid dispatch send time", "at", cfg.DispatchAt, "error", err)
			os.Exit(1)
		}
	}
	dispatcher := dispatch.NewDispatcher(store, &dispatch.LogGateway{Logger: log}, store,
		dispatch.WithRecurrence(recurrence),
		dispatch.WithLogger(log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- worker.Start(ctx) }()
	go func() { errCh <- dispatcher.Start(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stopped := 0
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		log.Error("processor stopped", "error", err)
		stopped = 1
	}

	cancel()
	shutdownTimer := time.NewTimer(2 * time.Second)
	defer shutdownTimer.Stop()
	for ; stopped < 2; stopped++ {
		select {
		case <-errCh:
		case <-shutdownTimer.C:
			return
		}
	}
}
