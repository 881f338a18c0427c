package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"origination_backend/internal/events"
	"origination_backend/internal/gateway"
	apphttp "origination_backend/internal/http"
	"origination_backend/internal/http/router"
	"origination_backend/internal/orchestrator"
	"origination_backend/platform/config"
	"origination_backend/platform/logger"
	"origination_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var publisher events.Publisher
	if cfg.IsNATSEnabled() {
		natsPublisher := events.NewNATSPublisher(events.NATSConfig{
			URL:           cfg.GetNATSURL(),
			SubjectPrefix: cfg.GetEventSubjectPrefix(),
			Name:          "origination-orchestrator",
		}, log)
		defer natsPublisher.Close()
		publisher = natsPublisher
		log.Info("event publisher initialized", "url", cfg.GetNATSURL(), "prefix", cfg.GetEventSubjectPrefix())
	} else {
		log.Warn("NATS_URL not configured; domain events will not leave the process")
		publisher = events.NewMemoryPublisher()
	}

	var tariffCache *redis.Client
	if cfg.IsRedisEnabled() {
		tariffCache = redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		defer tariffCache.Close()
		log.Info("tariff cache initialized", "addr", cfg.GetRedisAddr(), "ttl", cfg.GetTariffCacheTTL())
	} else {
		log.Warn("REDIS_ADDR not configured; tariff profile caching disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// One pooled HTTP client shared across all remote gateways
	httpClient := gateway.NewHTTPClient(cfg.GetGatewayTimeout())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	orchestratorModule := orchestrator.NewModule(orchestrator.Gateways{
		Leads:     gateway.NewLeadClient(cfg.GetOriginationAPIURL(), httpClient, log),
		Viability: gateway.NewViabilityClient(cfg.GetViabilityServiceURL(), httpClient, log),
		Tariffs:   gateway.NewTariffClient(cfg.GetTariffServiceURL(), httpClient, tariffCache, cfg.GetTariffCacheTTL(), log),
	}, publisher, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Modules: []apphttp.Module{
			orchestratorModule,
		},
	}

	engine := router.New(app)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
