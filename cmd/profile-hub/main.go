package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapterhandler "profile-hub/internal/adapter/handler"
	"profile-hub/internal/adapter/gateway"
	"profile-hub/internal/domain"
	infracache "profile-hub/internal/infrastructure/cache"
	"profile-hub/internal/infrastructure/events"
	"profile-hub/internal/infrastructure/session"
	infratoken "profile-hub/internal/infrastructure/token"
	"profile-hub/internal/usecase"

	"profile-hub/config"
	appmiddleware "profile-hub/middleware"
	"profile-hub/utils/logger"
	"profile-hub/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Docker healthcheck in the distroless image
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("profile-hub exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited properly")
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	log := logger.Init(otelCfg.ServiceName, otelCfg.Enabled)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log.InfoContext(ctx, "configuration loaded",
		"kratos_url", cfg.KratosURL,
		"port", cfg.Port,
		"cache_ttl", cfg.CacheTTL,
		"profile_cache_backend", cfg.ProfileCacheBackend,
		"profile_cache_ttl", cfg.ProfileCacheTTL)

	// Infrastructure
	profiles, healthDeps, closeProfiles, err := newProfileCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProfiles()

	identities, err := infracache.NewExpiring[domain.CachedSession]("identity", cfg.ProfileCacheCapacity, infracache.WithAbsoluteExpiry())
	if err != nil {
		return err
	}
	defer identities.Close()

	sessions, err := session.NewStore(cfg.SessionIdleTTL, cfg.ProfileCacheCapacity)
	if err != nil {
		return err
	}
	defer sessions.Close()

	jwtIssuer, err := infratoken.NewJWTIssuer(infratoken.JWTConfig{
		Secret:   cfg.BackendTokenSecret,
		Issuer:   cfg.BackendTokenIssuer,
		Audience: cfg.BackendTokenAudience,
		TTL:      cfg.BackendTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("backend token issuer: %w", err)
	}

	kratosGateway := gateway.NewKratosGateway(cfg.KratosURL, 5*time.Second)
	dispatcher := events.NewDispatcher(log,
		usecase.NewLogSink(log),
		usecase.NewProfileCacheSink(profiles, cfg.ProfileCacheTTL, log),
	)

	// Usecases
	sessionUC := usecase.NewGetSession(kratosGateway, identities, cfg.CacheTTL, sessions, jwtIssuer, dispatcher, log)
	ingestUC := usecase.NewIngestEvent(kratosGateway, identities, cfg.CacheTTL, sessions, dispatcher, log)
	lookupUC := usecase.NewLookupProfile(profiles, log)

	// Handlers
	sessionHandler := adapterhandler.NewSessionHandler(sessionUC, cfg.AuthSharedSecret)
	internalHandler := adapterhandler.NewInternalHandler(ingestUC, lookupUC, log)
	healthHandler := adapterhandler.NewHealthHandler(healthDeps...)

	sessionRL, err := appmiddleware.NewRateLimiter(30.0/60.0, 5) // 30 req/min
	if err != nil {
		return err
	}
	defer sessionRL.Close()
	internalRL, err := appmiddleware.NewRateLimiter(600.0/60.0, 50) // 600 req/min
	if err != nil {
		return err
	}
	defer internalRL.Close()

	e := newServer(otelCfg, sessionHandler, internalHandler, healthHandler, sessionRL, internalRL, cfg.AuthSharedSecret)

	address := fmt.Sprintf(":%s", cfg.Port)
	log.InfoContext(ctx, "starting profile-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	return g.Wait()
}

// newProfileCache builds the configured profile cache backend. The returned
// pingers feed /health.
func newProfileCache(ctx context.Context, cfg *config.Config) (domain.ProfileCache, []adapterhandler.Pinger, func(), error) {
	if cfg.ProfileCacheBackend == config.BackendRedis {
		redisCache, err := infracache.NewRedisCache("profile", cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("profile cache: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(pingCtx); err != nil {
			_ = redisCache.Close()
			return nil, nil, nil, fmt.Errorf("profile cache: %w", err)
		}
		closeFn := func() { _ = redisCache.Close() }
		return redisCache, []adapterhandler.Pinger{redisCache}, closeFn, nil
	}

	memoryCache, err := infracache.NewExpiring[json.RawMessage]("profile", cfg.ProfileCacheCapacity)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("profile cache: %w", err)
	}
	return memoryCache, nil, memoryCache.Close, nil
}

func newServer(
	otelCfg otel.Config,
	sessionHandler *adapterhandler.SessionHandler,
	internalHandler *adapterhandler.InternalHandler,
	healthHandler *adapterhandler.HealthHandler,
	sessionRL, internalRL *appmiddleware.RateLimiter,
	sharedSecret string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(appmiddleware.SecurityHeaders())
	e.Use(appmiddleware.RequestID())

	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			l := logger.GlobalContext.WithContext(rctx)
			if v.Error == nil {
				l.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				l.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.GET("/session", sessionHandler.Handle, sessionRL.Middleware())
	e.GET("/health", healthHandler.Handle)

	internal := e.Group("/internal",
		internalRL.Middleware(),
		appmiddleware.InternalAuth(sharedSecret),
	)
	internal.POST("/events", internalHandler.HandleEvent)
	internal.GET("/profiles/:subject", internalHandler.HandleProfile)

	return e
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
