package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpHandlers "github.com/consistentOats/rate-limited-service/internal/adapters/http/handlers"
	httpMiddleware "github.com/consistentOats/rate-limited-service/internal/adapters/http/middleware"
	memorystats "github.com/consistentOats/rate-limited-service/internal/adapters/stats/memory"
	redisstats "github.com/consistentOats/rate-limited-service/internal/adapters/stats/redis"
	memorystore "github.com/consistentOats/rate-limited-service/internal/adapters/storage/memory"
	"github.com/consistentOats/rate-limited-service/internal/config"
	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/ports"
	"github.com/consistentOats/rate-limited-service/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	stats, closeStats, err := initStats(cfg.Stats)
	if err != nil {
		log.Fatalf("failed to init stats backend: %v", err)
	}
	defer closeStats()

	registry, err := buildRegistry(cfg.RateLimiter)
	if err != nil {
		log.Fatalf("failed to build policy registry: %v", err)
	}

	store := memorystore.NewStore()
	clock := ports.ClockFunc(time.Now)

	limiter, err := services.NewAdmissionService(store, registry, clock)
	if err != nil {
		log.Fatalf("failed to create admission service: %v", err)
	}

	admit := httpMiddleware.NewAdmissionMiddleware(limiter, registry, clock, stats)

	r := chi.NewRouter()
	r.With(admit).Post("/vault", httpHandlers.PostVaultHandler)
	r.With(admit).Get("/vault/items", httpHandlers.GetVaultItemsHandler)
	r.With(admit).Put("/vault/items/{id}", httpHandlers.PutVaultItemHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.StartJanitor(ctx, clock, cfg.RateLimiter.SweepInterval, cfg.RateLimiter.SweepGrace)

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// buildRegistry congela as políticas por rota: toda rota servida recebe a
// política default, com overrides de ROUTE_LIMITS por cima. Um override para
// rota desconhecida é erro de configuração e impede o serviço de subir.
func buildRegistry(cfg config.RateLimiterConfig) (*services.PolicyRegistry, error) {
	policies := make(map[string]domain.Policy)
	for _, route := range httpHandlers.Routes() {
		policies[route] = cfg.DefaultPolicy
	}

	for route, policy := range cfg.RouteOverrides {
		if _, ok := policies[route]; !ok {
			return nil, fmt.Errorf("route override refers to unknown route: %s", route)
		}
		policies[route] = policy
	}

	registry, err := services.NewPolicyRegistry(policies, httpHandlers.OperationIDs())
	if err != nil {
		return nil, err
	}

	// Validação de partida: nenhuma rota servida pode ficar sem política.
	for _, route := range httpHandlers.Routes() {
		if _, err := registry.PolicyFor(route); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func initStats(cfg config.StatsConfig) (ports.StatsStore, func(), error) {
	switch cfg.Backend {
	case "", "none":
		return nil, func() {}, nil
	case "memory":
		return memorystats.NewStatsStore(), func() {}, nil
	case "redis":
		statsStore, err := redisstats.New(redisstats.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return statsStore, func() {
			if err := statsStore.Close(); err != nil {
				log.Printf("failed to close redis stats store: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported stats backend: %s", cfg.Backend)
	}
}
