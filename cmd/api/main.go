package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/miplata/core/migrations"
	"github.com/miplata/core/modules/billing"
	"github.com/miplata/core/modules/planapi"
	"github.com/miplata/core/pkg/config"
	"github.com/miplata/core/pkg/email"
	"github.com/miplata/core/pkg/entitlement"
	"github.com/miplata/core/pkg/logger"
	"github.com/miplata/core/pkg/pg"
	"github.com/miplata/core/pkg/plans"
	"github.com/miplata/core/pkg/redis"
	"github.com/miplata/core/pkg/usage"
	"github.com/miplata/core/pkg/userplan"
)

type serverConfig struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PlansFile overrides the database catalog with a YAML file.
	PlansFile string `env:"PLANS_FILE"`
	// DevEmailDir switches email delivery to on-disk files.
	DevEmailDir string `env:"DEV_EMAIL_DIR"`
	// TrustedUserHeader names a gateway-set header carrying the
	// authenticated user id. Empty leaves the /me routes behind 401
	// until an auth middleware is mounted.
	TrustedUserHeader string `env:"AUTH_TRUSTED_USER_HEADER"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(logCfg, logger.WithAttr(logger.Component("api")))
	slog.SetDefault(log)

	if err := run(ctx, log); err != nil {
		log.Error("api terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		srvCfg     serverConfig
		pgCfg      pg.Config
		redisCfg   redis.Config
		emailCfg   email.Config
		billingCfg billing.Config
	)
	config.MustLoad(&srvCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&billingCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("failed to close redis client", slog.Any("error", err))
		}
	}()

	var source plans.Source
	if srvCfg.PlansFile != "" {
		source = plans.NewFileSource(srvCfg.PlansFile)
	} else {
		source = plans.NewPGSource(pool)
	}
	catalog, err := plans.NewCatalog(ctx, source)
	if err != nil {
		return err
	}

	repo := userplan.NewRepository(pool, catalog)

	counters := usage.NewRegistry()
	usage.RegisterPGCounters(counters, pool)
	usage.RegisterScraperCounters(counters, rdb)
	accountant := usage.NewAccountant(counters, usage.WithLogger(log))

	evaluator := entitlement.NewEvaluator(repo.ResolvePlan, accountant,
		entitlement.WithEvaluatorLogger(log))
	sessions := entitlement.NewSessions(repo.ResolvePlan, accountant,
		entitlement.WithSessionsLogger(log))
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Warn("failed to close entitlement sessions", slog.Any("error", err))
		}
	}()

	var sender email.Sender
	if srvCfg.DevEmailDir != "" {
		sender = email.NewDevSender(srvCfg.DevEmailDir)
	} else {
		sender, err = email.NewPostmarkSender(emailCfg)
		if err != nil {
			return err
		}
	}
	alerter := email.NewAlerter(sender, repo.Email, email.WithAlerterLogger(log))

	planSvc := planapi.NewService(catalog, evaluator, sessions,
		planapi.WithLogger(log), planapi.WithUsageObserver(alerter))
	billingSvc := billing.NewService(billingCfg, catalog, repo, sessions,
		billing.WithLogger(log))

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	if srvCfg.TrustedUserHeader != "" {
		// Trust the gateway's user header; without it the /me routes
		// stay 401 until an auth middleware is mounted here.
		mux.Use(planapi.TrustHeader(srvCfg.TrustedUserHeader))
	}
	mux.Get("/healthz", healthz(pg.Healthcheck(pool), redis.Healthcheck(rdb)))
	mux.Mount("/v1", planSvc.Handle())
	mux.Mount("/v1/billing", billingSvc.Handle())

	srv := &http.Server{
		Addr:         srvCfg.Addr,
		Handler:      mux,
		ReadTimeout:  srvCfg.ReadTimeout,
		WriteTimeout: srvCfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", slog.String("addr", srvCfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthz(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
