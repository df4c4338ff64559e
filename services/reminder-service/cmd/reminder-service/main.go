package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clinisched/clinisched/libs/config"
	"github.com/clinisched/clinisched/libs/db"
	"github.com/clinisched/clinisched/libs/kafkax"
	"github.com/clinisched/clinisched/libs/otelx"
	"github.com/clinisched/clinisched/libs/outbox"
	"github.com/clinisched/clinisched/libs/runtime"
	"github.com/clinisched/clinisched/services/reminder-service/internal/reminders"
)

func parseReminderLeads(raw string, logger *slog.Logger) []time.Duration {
	var leads []time.Duration
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mins, err := strconv.Atoi(part)
		if err != nil || mins <= 0 {
			logger.Warn("invalid reminder lead", "value", part)
			continue
		}
		leads = append(leads, time.Duration(mins)*time.Minute)
	}
	if len(leads) == 0 {
		leads = []time.Duration{time.Hour}
	}
	return leads
}

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "reminder-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	// Shares the scheduling database; the scheduling service owns the schema
	// and runs its migrations.
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	leads := parseReminderLeads(config.String("REMINDER_LEAD_MINUTES", "60"), logger)
	sweeper := reminders.NewSweeper(pool, reminders.NewRepository(), outboxRepo, logger, reminders.SweeperConfig{
		Interval: time.Duration(config.Int("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		Leads:    leads,
	})
	go sweeper.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
