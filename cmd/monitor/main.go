package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/roomwatch/backend/internal/config"
	"github.com/roomwatch/backend/internal/mailer"
	"github.com/roomwatch/backend/internal/monitor"
	"github.com/roomwatch/backend/internal/rakuten"
	"github.com/roomwatch/backend/internal/repository"
	"github.com/roomwatch/backend/internal/service"
)

func main() {
	// Flags
	startOffset := flag.Int("start-offset", 0, "Days after today (JST) the check window starts")
	days := flag.Int("days", 0, "Window length in days (0 = default window)")
	timeout := flag.Duration("timeout", 10*time.Minute, "Run timeout")
	notify := flag.Bool("notify", false, "Dispatch notifications for detected openings")
	output := flag.String("output", "", "Output file for the JSON run summary (default: stdout summary only)")
	flag.Parse()

	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if cfg.RakutenAppID == "" {
		fmt.Fprintln(os.Stderr, "Error: RAKUTEN_APP_ID is required")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	client, err := rakuten.NewClient(rakuten.ClientConfig{
		AppID:   cfg.RakutenAppID,
		HotelNo: cfg.RakutenHotelNo,
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	availabilityRepo := repository.NewAvailabilityRepository(db)
	reconciler := monitor.NewReconciler(availabilityRepo, logger)

	// Without -notify the run still records every observation; it just
	// leaves subscribers alone. Useful for backfills and manual checks.
	var notifier monitor.Notifier
	if *notify {
		subscriptionRepo := repository.NewSubscriptionRepository(db)
		pushRepo := repository.NewPushRepository(db)
		pushService := service.NewPushNotificationService(pushRepo, cfg)

		var emailSender mailer.Sender
		if cfg.ResendAPIKey != "" {
			resend, err := mailer.NewResendClient(mailer.ResendConfig{
				APIKey: cfg.ResendAPIKey,
				From:   cfg.FromEmail,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			emailSender = resend
		}

		notifier = service.NewNotificationService(
			subscriptionRepo, emailSender, pushService, cfg.FrontendURL, logger)
	}

	runner := monitor.NewRunner(client, reconciler, notifier, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Checking hotel %s availability...\n", cfg.RakutenHotelNo)
	startTime := time.Now()

	summary, err := runner.Run(ctx, *startOffset, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(startTime)

	fmt.Println()
	for _, result := range summary.Results {
		switch {
		case result.Skipped:
			fmt.Printf("⏭  %s: skipped\n", result.Date)
		case !result.Success:
			fmt.Printf("❌ %s: %s\n", result.Date, result.Error)
		default:
			fmt.Printf("✅ %s: %d room types\n", result.Date, result.Entries)
		}
	}

	fmt.Println()
	fmt.Printf("SUMMARY: %s..%s, %d/%d dates ok, %d new, %d updated, %d closed, %d openings, %d notifications, %.1fs\n",
		summary.StartDate, summary.EndDate,
		summary.SuccessCount, summary.TotalDates,
		summary.NewRecords, summary.UpdatedRecords, summary.MarkedUnavailable,
		summary.Transitions, summary.NotificationsSent,
		elapsed.Seconds())
	if summary.Aborted {
		fmt.Printf("⚠️  run aborted early: %s\n", summary.Message)
	}

	if *output != "" {
		data, _ := json.MarshalIndent(summary, "", "  ")
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n✅ Wrote run summary to %s\n", *output)
	}

	if summary.Aborted {
		os.Exit(1)
	}
}
