package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pseudosapiens/phrase-api/internal/config"
	"github.com/pseudosapiens/phrase-api/internal/email"
	"github.com/pseudosapiens/phrase-api/internal/repository/postgres"
	"github.com/pseudosapiens/phrase-api/internal/service/engine"
	subscriptionService "github.com/pseudosapiens/phrase-api/internal/service/subscription"
	"github.com/pseudosapiens/phrase-api/internal/worker"
	"github.com/pseudosapiens/phrase-api/pkg/auth"
	"github.com/pseudosapiens/phrase-api/pkg/locker"
	"github.com/pseudosapiens/phrase-api/pkg/logger"
	"github.com/pseudosapiens/phrase-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	locks, err := locker.New(locker.Config{URL: cfg.Redis.URL, Prefix: "dispatch"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer locks.Close()

	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Engine.Timezone).Msg("invalid timezone")
	}

	// Repositories
	phraseRepo := postgres.NewPhraseRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	subscriberRepo := postgres.NewSubscriberRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)

	// Services
	engineSvc := engine.NewService(phraseRepo, historyRepo, engine.Config{
		RetentionCount: cfg.Engine.RetentionCount,
		Location:       loc,
	})
	subscriptionSvc := subscriptionService.NewService(planRepo, subscriptionRepo)
	tokenSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	sender := email.NewSMTPSender(cfg.SMTP)

	m := metrics.NewMetrics("pseudosapiens", "worker")

	dispatcher := worker.NewDispatchWorker(
		subscriptionSvc,
		engineSvc,
		sender,
		tokenSvc,
		locks,
		worker.DispatchConfig{
			Interval:    cfg.Scheduler.DispatchInterval,
			LeaseTTL:    cfg.Scheduler.LeaseTTL,
			Concurrency: cfg.Scheduler.Concurrency,
			BaseURL:     cfg.Server.BaseURL,
		},
		appLogger,
		m,
	)

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Scheduler.CleanupEnabled {
		cleanup := worker.NewHistoryCleanupWorker(
			historyRepo,
			subscriberRepo,
			cfg.Scheduler.CleanupRetentionRows,
			cfg.Scheduler.CleanupInterval,
			appLogger,
		)
		go cleanup.Start(ctx)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down...")
		cancel()
	}()

	dispatcher.Start(ctx)
}

func setupHealthCheck(logger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			logger.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}
