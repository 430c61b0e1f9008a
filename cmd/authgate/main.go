package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/authgate/api"
	"github.com/skillsenselab/authgate/config"
	"github.com/skillsenselab/authgate/flow"
	"github.com/skillsenselab/authgate/logger"
	"github.com/skillsenselab/authgate/observability"
	"github.com/skillsenselab/authgate/oidc"
	"github.com/skillsenselab/authgate/server"
	"github.com/skillsenselab/authgate/session"
	"github.com/skillsenselab/authgate/version"
)

func main() {
	if err := run(); err != nil {
		logger.Fatal("service exited", logger.Fields("error", err.Error()))
	}
}

func run() error {
	cfg, err := config.App()
	if err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("starting", logger.Fields(
		"service", cfg.Name,
		"version", version.Short(),
		"stage", cfg.Stage,
		"environment", cfg.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(tp.Shutdown)

		mp, err := observability.InitMeter(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(mp.Shutdown)
	}

	fetcher := oidc.NewRemoteKeyFetcher(10 * time.Second)
	verifier := oidc.NewVerifier(oidc.Config{
		Issuer:   cfg.Provider.Issuer(),
		ClientID: cfg.Provider.ClientID,
	}, fetcher)

	coordinator, err := flow.New(cfg, log)
	if err != nil {
		return err
	}
	sessions := session.NewReader(verifier, cfg.Cookie, log)

	var metrics *observability.AuthMetrics
	if cfg.Observability.Enabled {
		metrics, err = observability.NewAuthMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return err
		}
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, providerHealth(cfg, fetcher))
	api.NewHandlers(coordinator, sessions, cfg.Cookie, metrics, log).
		Register(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return err
	}
	log.Info("listening", logger.Fields("addr", srv.Addr()))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// providerHealth reports whether the identity provider's key set is
// reachable, which is what token verification depends on.
func providerHealth(cfg *config.AppConfig, fetcher oidc.KeyFetcher) func(ctx context.Context) []observability.Health {
	return func(ctx context.Context) []observability.Health {
		h := observability.Health{Name: "identity_provider", Status: observability.HealthStatusUp}
		if _, err := fetcher.FetchKeySet(ctx, cfg.Provider.Issuer()); err != nil {
			h.Status = observability.HealthStatusDown
			h.Message = err.Error()
		}
		return []observability.Health{h}
	}
}

func shutdownWithTimeout(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("telemetry shutdown", logger.Fields("error", err.Error()))
	}
}
