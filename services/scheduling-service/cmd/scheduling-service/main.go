package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clinisched/clinisched/libs/config"
	"github.com/clinisched/clinisched/libs/db"
	"github.com/clinisched/clinisched/libs/httpx"
	"github.com/clinisched/clinisched/libs/kafkax"
	"github.com/clinisched/clinisched/libs/otelx"
	"github.com/clinisched/clinisched/libs/outbox"
	"github.com/clinisched/clinisched/libs/runtime"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/booking"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/handlers"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/storage"
	"github.com/clinisched/clinisched/services/scheduling-service/migrations"
)

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8081")
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

	physicianRepo := storage.NewPhysicianRepository(pool, logger)
	appointmentRepo := storage.NewAppointmentRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	bookingService := booking.NewService(physicianRepo, appointmentRepo, outboxRepo, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	physicianHandler := handlers.NewPhysicianHandler(physicianRepo, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, appointmentRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/physicians", physicianHandler.List)
	mux.HandleFunc("/api/v1/physicians/create", physicianHandler.Create)
	mux.HandleFunc("/api/v1/physicians/get", physicianHandler.Get)
	mux.HandleFunc("/api/v1/physicians/status", physicianHandler.SetStatus)
	mux.HandleFunc("/api/v1/physicians/hours", physicianHandler.ReplaceWeekday)
	mux.HandleFunc("/api/v1/physicians/overrides", physicianHandler.UpsertOverride)
	mux.HandleFunc("/api/v1/physicians/overrides/delete", physicianHandler.DeleteOverride)
	mux.HandleFunc("/api/v1/public/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/public/book", bookingHandler.Create)
	mux.HandleFunc("/api/v1/appointments", bookingHandler.List)
	mux.HandleFunc("/api/v1/appointments/get", bookingHandler.Get)
	mux.HandleFunc("/api/v1/appointments/reschedule", bookingHandler.Reschedule)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)

	rateLimit := rateLimitMiddleware(logger)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		rateLimit,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           10 * time.Minute,
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")

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

// rateLimitMiddleware prefers the shared Redis fixed-window limiter; without
// REDIS_ADDR each replica falls back to its own in-memory limiter.
func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_REQUESTS", 120)
	window := time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	redisAddr := config.String("REDIS_ADDR", "")
	if redisAddr == "" {
		return httpx.NewRateLimiter(limit, window).Middleware()
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	return httpx.NewRedisRateLimiter(rdb, limit, window, "scheduling").Middleware(logger, true)
}
