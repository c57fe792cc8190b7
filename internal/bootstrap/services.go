package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tranquilhq/tranquil-api/config"
	"github.com/tranquilhq/tranquil-api/internal/adapters/bcrypt"
	jwtadapter "github.com/tranquilhq/tranquil-api/internal/adapters/jwt"
	redisadapter "github.com/tranquilhq/tranquil-api/internal/adapters/redis"
	"github.com/tranquilhq/tranquil-api/internal/data"
	"github.com/tranquilhq/tranquil-api/internal/observability/statsd"
	"github.com/tranquilhq/tranquil-api/internal/ports"
	"github.com/tranquilhq/tranquil-api/internal/service"
)

// shutdownWaitTimeout is the maximum time to wait for the HTTP server to
// stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	Reaper        *service.SessionReaperService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires repositories, adapters, and services from the shared
// infrastructure handles.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	cfg := deps.Config

	observability := buildObservability(deps.Logger, cfg.Observability)

	issuer, err := jwtadapter.NewIssuer([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create token issuer: %w", err)
	}

	sessions, err := buildSessionStore(deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Users:              data.NewUserRepo(deps.DB),
		Sessions:           sessions,
		Hasher:             bcrypt.NewHasher(cfg.Auth.BcryptCost),
		Issuer:             issuer,
		TokenTTL:           cfg.Auth.TokenTTL,
		RequireLiveSession: cfg.Auth.RequireLiveSession,
		Logger:             deps.Logger,
		Metrics:            observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create auth service: %w", err)
	}

	reaper, err := service.NewSessionReaperService(service.SessionReaperServiceOptions{
		Sessions: sessions,
		Config:   cfg.Reaper,
		Logger:   deps.Logger,
		Metrics:  observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create session reaper: %w", err)
	}

	return ServiceContainer{
		Auth:          auth,
		Reaper:        reaper,
		Observability: observability,
	}, nil
}

// buildSessionStore picks the session store implementation for the
// configured backend.
//
//nolint:ireturn // the store choice is exactly what this function abstracts.
func buildSessionStore(deps *ServiceDeps) (ports.SessionStore, error) {
	switch deps.Config.Auth.SessionBackend {
	case config.SessionBackendRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("redis session backend selected but no redis client connected")
		}
		return redisadapter.NewSessionStore(deps.RedisClient), nil
	case config.SessionBackendPostgres:
		return data.NewSessionRepo(deps.DB), nil
	default:
		return nil, fmt.Errorf("unknown session backend: %q", deps.Config.Auth.SessionBackend)
	}
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "tranquil",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and blocks until a
// termination signal or the first service failure, then shuts the rest
// down gracefully.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	var server = startHTTPServerIfEnabled(cfg, logger)
	if server != nil {
		group.Go(func() error {
			<-groupCtx.Done()
			return ShutdownHTTPServer(ShutdownConfig{
				Context: context.Background(),
				Server:  server,
				Logger:  logger,
			})
		})
	}

	if cfg.Config.IsReaperEnabled() {
		group.Go(func() error {
			return cfg.Services.Reaper.Run(groupCtx)
		})
	}

	logger.InfoContext(ctx, "services running", "enabled", GetEnabledServices(cfg.Config))

	err := group.Wait()

	if sink := cfg.Services.Observability.MetricsSink; sink != nil {
		if closeErr := sink.Close(); closeErr != nil {
			logger.Warn("close metrics sink failed", "error", closeErr)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func startHTTPServerIfEnabled(cfg *ServiceOrchestrationConfig, logger *slog.Logger) *http.Server {
	if !cfg.Config.IsHTTPServerEnabled() {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})
}
