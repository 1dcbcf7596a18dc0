// Command server runs the account service: the JSON auth API under
// /api/auth, a session gate in front of the application pages, and the
// operational endpoints /healthz and /metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	authcore "github.com/casekit/authcore"
	"github.com/casekit/authcore/httpapi"
	"github.com/casekit/authcore/mailer"
	promexport "github.com/casekit/authcore/metrics/export/prometheus"
	"github.com/casekit/authcore/middleware"
	"github.com/casekit/authcore/userstore"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, err := userstore.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer users.Close()
	if err := users.Migrate(); err != nil {
		return fmt.Errorf("migrate users schema: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	provider, err := buildProvider(cfg, users, redisClient)
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}
	defer provider.Close()

	actions := authcore.NewActions(provider, logger)
	api := httpapi.New(actions, httpapi.Config{
		CookieName:        cfg.CookieName,
		CookieTTL:         cfg.SessionTTL,
		CookieSecure:      cfg.CookieSecure,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}, logger)

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Get("/healthz", handleHealthz(redisClient, users))
	if cfg.MetricsEnabled {
		router.Handle("/metrics", promexport.NewExporter(provider).Handler())
	}
	router.Mount("/api/auth", api.Routes())

	gate := middleware.Gate(provider, middleware.WithCookieName(cfg.CookieName))
	router.Group(func(r chi.Router) {
		r.Use(gate)
		registerPages(r)
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildProvider(cfg serverConfig, users authcore.UserDirectory, client *redis.Client) (*authcore.Provider, error) {
	authCfg := authcore.DefaultConfig()
	authCfg.Session.Lifetime = cfg.SessionTTL
	authCfg.PasswordReset.SigningKey = []byte(cfg.ResetSigningKey)
	authCfg.PasswordReset.LinkBaseURL = cfg.ResetLinkBaseURL
	authCfg.Security.RequireVerifiedEmail = cfg.RequireVerifiedEmail
	authCfg.Audit.Enabled = cfg.AuditEnabled
	authCfg.Metrics.Enabled = cfg.MetricsEnabled
	authCfg.Metrics.EnableLatencyHistograms = cfg.MetricsEnabled

	builder := authcore.New().
		WithConfig(authCfg).
		WithRedis(client).
		WithUsers(users).
		WithMailer(newMailer(cfg))
	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(authcore.NewJSONWriterSink(os.Stdout))
	}
	return builder.Build()
}

func newMailer(cfg serverConfig) authcore.Mailer {
	if cfg.SMTPAddr == "" {
		return mailer.NewWriter(os.Stdout)
	}
	m, err := mailer.NewSMTP(mailer.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
	if err != nil {
		// loadConfig already validated the SMTP fields.
		panic(err)
	}
	return m
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func handleHealthz(client *redis.Client, users *userstore.Postgres) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := users.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
