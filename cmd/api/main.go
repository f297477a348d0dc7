package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pseudosapiens/phrase-api/internal/config"
	"github.com/pseudosapiens/phrase-api/internal/handler"
	paymentHandler "github.com/pseudosapiens/phrase-api/internal/handler/payment"
	planHandler "github.com/pseudosapiens/phrase-api/internal/handler/plan"
	"github.com/pseudosapiens/phrase-api/internal/handler/prometheus"
	subscriberHandler "github.com/pseudosapiens/phrase-api/internal/handler/subscriber"
	"github.com/pseudosapiens/phrase-api/internal/middleware"
	"github.com/pseudosapiens/phrase-api/internal/repository/postgres"
	"github.com/pseudosapiens/phrase-api/internal/router"
	"github.com/pseudosapiens/phrase-api/internal/service/engine"
	paymentService "github.com/pseudosapiens/phrase-api/internal/service/payment"
	subscriberService "github.com/pseudosapiens/phrase-api/internal/service/subscriber"
	subscriptionService "github.com/pseudosapiens/phrase-api/internal/service/subscription"
	"github.com/pseudosapiens/phrase-api/pkg/auth"
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
	paymentRepo := postgres.NewPaymentRepository(db)

	// Services
	tokenSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	engineSvc := engine.NewService(phraseRepo, historyRepo, engine.Config{
		RetentionCount: cfg.Engine.RetentionCount,
		Location:       loc,
	})
	subscriptionSvc := subscriptionService.NewService(planRepo, subscriptionRepo)
	subscriberSvc := subscriberService.NewService(subscriberRepo, subscriptionSvc, tokenSvc)
	paymentSvc := paymentService.NewService(paymentRepo, subscriberSvc, subscriptionSvc, cfg.Payment.Izipay.HMACKey, appLogger)

	m := metrics.NewMetrics("pseudosapiens", "api")

	// Handlers
	h := handler.NewHandler(db)
	promH := prometheus.New()
	subscriberH := subscriberHandler.NewHandler(subscriberSvc, engineSvc)
	planH := planHandler.NewHandler(subscriptionSvc)
	paymentH := paymentHandler.NewHandler(paymentSvc, m)

	r := router.NewRouter(h, promH, subscriberH, planH, paymentH, router.RouterConfig{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		CORSConfig:     middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("api listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
