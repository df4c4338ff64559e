package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clinisched/clinisched/libs/config"
	"github.com/clinisched/clinisched/libs/db"
	"github.com/clinisched/clinisched/libs/httpx"
	"github.com/clinisched/clinisched/libs/kafkax"
	"github.com/clinisched/clinisched/libs/otelx"
	"github.com/clinisched/clinisched/libs/outbox"
	"github.com/clinisched/clinisched/libs/runtime"
	"github.com/clinisched/clinisched/services/notification-service/internal/consumer"
	"github.com/clinisched/clinisched/services/notification-service/internal/dispatch"
	"github.com/clinisched/clinisched/services/notification-service/internal/email"
	"github.com/clinisched/clinisched/services/notification-service/internal/inbox"
	"github.com/clinisched/clinisched/services/notification-service/internal/sms"
	"github.com/clinisched/clinisched/services/notification-service/internal/storage"
	"github.com/clinisched/clinisched/services/notification-service/migrations"
)

type notificationItem struct {
	ID            int64  `json:"id"`
	AppointmentID string `json:"appointment_id"`
	EventType     string `json:"event_type"`
	Channel       string `json:"channel"`
	Recipient     string `json:"recipient"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func writeNotificationList(w http.ResponseWriter, items []storage.Notification) {
	out := make([]notificationItem, 0, len(items))
	for _, n := range items {
		out = append(out, notificationItem{
			ID:            n.ID,
			AppointmentID: n.AppointmentID,
			EventType:     n.EventType,
			Channel:       n.Channel,
			Recipient:     n.Recipient,
			Status:        n.Status,
			FailureReason: n.FailureReason,
			CreatedAt:     n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	body, err := json.Marshal(out)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8083")
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

	if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	emailSender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@clinisched.local"),
	)

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
		)
	default:
		smsSender = sms.NewNoopSender()
	}

	dispatcher := dispatch.New(pool, notificationsRepo, outboxRepo, emailSender, smsSender, logger)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")
	startConsumer := func(topic, kind string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, dispatcher.Handler(kind))
		go c.Run(ctx)
	}
	startConsumer(config.String("TOPIC_APPOINTMENT_CREATED", "scheduling.appointment.created.v1"), dispatch.KindCreated)
	startConsumer(config.String("TOPIC_APPOINTMENT_CANCELLED", "scheduling.appointment.cancelled.v1"), dispatch.KindCancelled)
	startConsumer(config.String("TOPIC_REMINDER_DUE", "reminders.reminder.due.v1"), dispatch.KindReminder)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := 50
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		items, err := notificationsRepo.ListRecent(r.Context(), strings.TrimSpace(r.URL.Query().Get("appointment_id")), limit)
		if err != nil {
			http.Error(w, "failed to list notifications", http.StatusInternalServerError)
			return
		}
		writeNotificationList(w, items)
	})

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler := otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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
