// Package main is the entrypoint for the Mailsmith API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mailsmith/mailsmith/internal/config"
	"github.com/mailsmith/mailsmith/internal/identity"
	"github.com/mailsmith/mailsmith/internal/llm"
	"github.com/mailsmith/mailsmith/internal/metrics"
	"github.com/mailsmith/mailsmith/internal/model"
	"github.com/mailsmith/mailsmith/internal/quota"
	"github.com/mailsmith/mailsmith/internal/server"
	"github.com/mailsmith/mailsmith/internal/service"
	"github.com/mailsmith/mailsmith/internal/store"
	"github.com/mailsmith/mailsmith/internal/usagelog"
)

func main() {
	ctx := context.Background()

	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store ready", slog.String("driver", cfg.StoreDriver))

	registry, err := identity.New(ctx, st)
	if err != nil {
		logger.Error("failed to load identity registry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ledger, err := quota.New(ctx, st, model.PlanLimits{FreeDaily: cfg.FreeDailyLimit})
	if err != nil {
		logger.Error("failed to load quota ledger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	recorder := metrics.NewPrometheus(promRegistry)
	metricsHandler := promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})

	// Generative backend
	backend := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	mailService := service.NewMailService(backend, recorder)

	// Usage log pipeline
	publisher := usagelog.NewPublisher(logger, recorder, 0)
	worker := usagelog.NewWorker(st, publisher.Records(), logger, recorder)
	worker.Start()

	router := server.NewRouter(server.RouterDeps{
		Config:         cfg,
		Logger:         logger,
		Store:          st,
		Registry:       registry,
		Ledger:         ledger,
		Mail:           mailService,
		Metrics:        recorder,
		MetricsHandler: metricsHandler,
		Publisher:      publisher,
	})

	srv := server.New(
		router,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("usage log worker", func(ctx context.Context) error {
		publisher.Close()
		return worker.Shutdown(ctx)
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"free_daily_limit", cfg.FreeDailyLimit,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore constructs the configured store driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		return store.NewRedisStore(ctx, cfg.RedisURL)
	case config.StoreDriverPostgres:
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.StoreDriverMemory:
		return store.NewMemoryStore(), nil
	default:
		return store.NewFileStore(cfg.DataDir)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips credentials from a connection URL for logging.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError removes connection secrets from error text before logging.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
