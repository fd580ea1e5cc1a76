package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"mentorlink-backend/internal/aggregator"
	httpapi "mentorlink-backend/internal/api/http"
	"mentorlink-backend/internal/config"
	"mentorlink-backend/internal/jobs"
	"mentorlink-backend/internal/logger"
	"mentorlink-backend/internal/realtime"
	"mentorlink-backend/internal/repository/postgres"
	"mentorlink-backend/internal/scheduler"
	"mentorlink-backend/internal/security"
	"mentorlink-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting MentorLink invitation core...", "log_level", cfg.Log.Level, "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// Realtime change feed
	eventSource := realtime.NewPGEventSource(cfg.GetDatabaseConnectionString())
	eventSource.Start(ctx, &wg)

	// Delivery collaborators
	var emailSvc service.EmailService = service.NoopEmailService{}
	if cfg.Email.APIKey != "" {
		emailSvc = service.NewSendGridEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
		logger.Info("Email delivery enabled", "from", cfg.Email.FromEmail)
	}
	var pushSvc service.PushService = service.NoopPushService{}
	if cfg.Push.Enabled {
		pushSvc, err = service.NewFCMPushService(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize push delivery", "error", err)
			log.Fatalf("Failed to initialize push delivery: %v", err)
		}
		logger.Info("Push delivery enabled")
	}

	// Invitation state machines: one generic store per kind
	relSvc := service.NewRelationshipInvitationService(
		store.RelationshipInvites, store.Notifications, store.Relationships,
		store.DeviceTokens, pushSvc, emailSvc)
	colSvc := service.NewCollectionInvitationService(
		store.CollectionInvites, store.Notifications, store.Memberships,
		store.DeviceTokens, pushSvc, emailSvc)
	noteSvc := service.NewNotificationService(store.Notifications)

	// Aggregation core
	router := service.NewNotificationRouter()
	reconciler := aggregator.NewReconciler(store.RelationshipInvites, store.CollectionInvites, store.Notifications, router)
	registry := aggregator.NewRegistry()

	// Background jobs
	jobRunner := jobs.NewJobRunner(cfg, registry, store.Notifications, relSvc, colSvc)
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	defer sched.Stop()

	// HTTP API
	verifier := security.NewTokenVerifier(cfg.JWT.Secret)
	invHandler := httpapi.NewInvitationHandler(relSvc, colSvc, reconciler, cfg.Aggregator.StrictDedup)
	noteHandler := httpapi.NewNotificationHandler(noteSvc)
	sessHandler := httpapi.NewSessionHandler(aggregator.Config{
		DebounceWindow: cfg.Aggregator.DebounceWindow(),
		StrictDedup:    cfg.Aggregator.StrictDedup,
	}, cfg.Aggregator.SettleDelay(), eventSource, reconciler, registry)

	server := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: httpapi.NewRouter(verifier, invHandler, noteHandler, sessHandler),
		// the session stream stays open for the life of the client session
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
		logger.Info("Shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	cancel()
	wg.Wait()
	logger.Info("Shutdown complete")
}
