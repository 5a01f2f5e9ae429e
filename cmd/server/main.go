package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/lessonbook/internal/auth"
	"github.com/mmynk/lessonbook/internal/config"
	"github.com/mmynk/lessonbook/internal/events"
	"github.com/mmynk/lessonbook/internal/ledger"
	"github.com/mmynk/lessonbook/internal/middleware"
	"github.com/mmynk/lessonbook/internal/service"
	"github.com/mmynk/lessonbook/internal/storage"
	"github.com/mmynk/lessonbook/internal/storage/postgres"
	"github.com/mmynk/lessonbook/internal/storage/sqlite"
	"github.com/mmynk/lessonbook/pkg/api"
	"github.com/mmynk/lessonbook/pkg/api/apiconnect"
	"github.com/mmynk/lessonbook/pkg/logging"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	publisher := openPublisher(cfg.AMQP)
	defer publisher.Close()

	minDate, _ := cfg.Attendance.MinDay() // validated by config.Load
	engine := ledger.New(store,
		ledger.WithMinDate(minDate),
		ledger.WithPublisher(publisher),
	)

	authenticator := auth.NewPasswordAuthenticator(store)
	if cfg.Auth.AdminPassword != "" {
		admin, created, err := authenticator.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
		if err != nil {
			slog.Error("Failed to bootstrap admin account", "error", err)
			os.Exit(1)
		}
		if created {
			slog.Info("Admin account created", "user_id", admin.ID, "username", admin.Username)
		}
	}
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)

	metrics := middleware.NewMetrics()
	opts := service.HandlerOptions(jwtManager, metrics)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms", api.MetaErrorCode, api.MetaMinDate},
		MaxAge:         cfg.CORS.MaxAge,
	}))

	router.Mount(apiconnect.NewAttendanceServiceHandler(service.NewAttendanceService(engine), opts...))
	router.Mount(apiconnect.NewBillingServiceHandler(service.NewBillingService(engine), opts...))
	router.Mount(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, slog.Default()), opts...))
	router.Handle("/metrics", metrics.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      h2c.NewHandler(router, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("Connect server starting", "address", cfg.Server.Address, "min_date", cfg.Attendance.MinDate)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	if cfg.Driver == "postgres" {
		store, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// openPublisher falls back to dropping events when the broker is not
// configured or unreachable.
func openPublisher(cfg config.AMQPConfig) events.Publisher {
	if cfg.URL == "" {
		return events.Nop{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		slog.Warn("Event publishing disabled", "error", err)
		return events.Nop{}
	}
	slog.Info("Publishing events", "exchange", cfg.Exchange)
	return publisher
}
