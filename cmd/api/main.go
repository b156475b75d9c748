package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/roomwatch/backend/internal/config"
	"github.com/roomwatch/backend/internal/handler"
	applog "github.com/roomwatch/backend/internal/logger"
	"github.com/roomwatch/backend/internal/mailer"
	"github.com/roomwatch/backend/internal/monitor"
	"github.com/roomwatch/backend/internal/rakuten"
	"github.com/roomwatch/backend/internal/repository"
	"github.com/roomwatch/backend/internal/scheduler"
	"github.com/roomwatch/backend/internal/service"
)

func main() {
	cfg := config.Load()

	logger := applog.Logger()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	pushRepo := repository.NewPushRepository(db)

	// Outbound channels. Email and push degrade to disabled when their
	// credentials are absent so the API still serves without them.
	var emailSender mailer.Sender
	if cfg.ResendAPIKey != "" {
		resend, err := mailer.NewResendClient(mailer.ResendConfig{
			APIKey: cfg.ResendAPIKey,
			From:   cfg.FromEmail,
		})
		if err != nil {
			log.Fatalf("Failed to configure email sender: %v", err)
		}
		emailSender = resend
	} else {
		logger.Warn("RESEND_API_KEY not set, email notifications disabled")
	}

	pushService := service.NewPushNotificationService(pushRepo, cfg)
	if !pushService.IsConfigured() {
		logger.Warn("VAPID keys not set, push notifications disabled")
	}

	notificationService := service.NewNotificationService(
		subscriptionRepo, emailSender, pushService, cfg.FrontendURL, logger)

	// The Rakuten app ID is mandatory: without it the monitor cannot
	// observe the hotel and the product does nothing.
	rakutenClient, err := rakuten.NewClient(rakuten.ClientConfig{
		AppID:   cfg.RakutenAppID,
		HotelNo: cfg.RakutenHotelNo,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to configure vacancy source: %v", err)
	}

	reconciler := monitor.NewReconciler(availabilityRepo, logger)
	runner := monitor.NewRunner(rakutenClient, reconciler, notificationService, logger)

	// Services
	userService := service.NewUserService(userRepo, subscriptionRepo)
	availabilityService := service.NewAvailabilityService(availabilityRepo)
	monitorService := service.NewMonitorService(runner, cfg.MonitorWindowDays, cfg.MonitorTimeout, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(userService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	subscriptionHandler := handler.NewSubscriptionHandler(notificationService)
	monitorHandler := handler.NewMonitorHandler(monitorService)
	pushHandler := handler.NewPushHandler(pushService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)

	// Vacancy calendar (public - the frontend shows it before login)
	r.Get("/api/availability", availabilityHandler.List)

	// Monitor control and health
	r.Post("/api/monitor/run", monitorHandler.Run)
	r.Get("/api/monitor/health", monitorHandler.Health)

	// Push notifications (public - VAPID key needed before auth)
	r.Get("/api/notifications/vapid-public-key", pushHandler.GetVAPIDPublicKey)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware)

		// Current user
		r.Get("/api/auth/me", authHandler.Me)

		// Watch settings
		r.Get("/api/subscription", subscriptionHandler.Get)
		r.Put("/api/subscription", subscriptionHandler.Update)

		// Notification history
		r.Get("/api/notifications/history", subscriptionHandler.History)

		// Push Notifications
		r.Post("/api/notifications/subscribe", pushHandler.Subscribe)
		r.Delete("/api/notifications/unsubscribe", pushHandler.Unsubscribe)

		// Calendar backfill
		r.Post("/api/availability/seed", availabilityHandler.Seed)
	})

	// Scheduled monitor runs
	var monitorScheduler *scheduler.Scheduler
	if cfg.MonitorEnabled {
		schedCfg := scheduler.Config{
			Schedule: cfg.MonitorSchedule,
			Enabled:  cfg.MonitorEnabled,
		}
		monitorScheduler = scheduler.New(schedCfg, monitorService, logger)
		if err := monitorScheduler.Start(); err != nil {
			logger.Error("Failed to start monitor scheduler", slog.String("error", err.Error()))
		} else {
			monitorService.SetNextRunTimeFunc(monitorScheduler.GetNextRunTime)
			logger.Info("Monitor scheduler started",
				slog.String("schedule", cfg.MonitorSchedule),
				slog.Duration("timeout", cfg.MonitorTimeout),
				slog.Int("window_days", cfg.MonitorWindowDays),
			)
		}
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		// Stop scheduler first
		if monitorScheduler != nil {
			ctx := monitorScheduler.Stop()
			<-ctx.Done()
			logger.Info("Scheduler stopped")
		}

		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server failed: %v", err)
	}
}
