// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
)

type Config struct {
	Server      ServerConfig
	Stats       StatsConfig
	RateLimiter RateLimiterConfig
}

type ServerConfig struct {
	Port string
}

type StatsConfig struct {
	Backend string
	Redis   RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimiterConfig struct {
	DefaultPolicy  domain.Policy
	RouteOverrides map[string]domain.Policy
	SweepInterval  time.Duration
	SweepGrace     time.Duration
}

func Load() (Config, error) {
	_ = godotenv.Load()

	server := ServerConfig{Port: getEnv("SERVER_PORT", "8080")}

	statsBackend := strings.ToLower(getEnv("STATS_BACKEND", "none"))

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server: server,
		Stats: StatsConfig{
			Backend: statsBackend,
			Redis:   redisConfig,
		},
		RateLimiter: rateLimiterConfig,
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	defaultRequests, err := strconv.Atoi(getEnv("RATE_LIMIT_DEFAULT_REQUESTS", "10"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_DEFAULT_REQUESTS: %w", err)
	}
	defaultWindowSeconds, err := strconv.Atoi(getEnv("RATE_LIMIT_DEFAULT_WINDOW_SECONDS", "60"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_DEFAULT_WINDOW_SECONDS: %w", err)
	}

	sweepIntervalSeconds, err := strconv.Atoi(getEnv("RATE_LIMIT_SWEEP_INTERVAL_SECONDS", "0"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_INTERVAL_SECONDS: %w", err)
	}
	sweepGraceSeconds, err := strconv.Atoi(getEnv("RATE_LIMIT_SWEEP_GRACE_SECONDS", "300"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_GRACE_SECONDS: %w", err)
	}

	overrides, err := buildRouteOverrides()
	if err != nil {
		return RateLimiterConfig{}, err
	}

	return RateLimiterConfig{
		DefaultPolicy: domain.Policy{
			Limit:  defaultRequests,
			Window: time.Duration(defaultWindowSeconds) * time.Second,
		},
		RouteOverrides: overrides,
		SweepInterval:  time.Duration(sweepIntervalSeconds) * time.Second,
		SweepGrace:     time.Duration(sweepGraceSeconds) * time.Second,
	}, nil
}

// buildRouteOverrides interpreta ROUTE_LIMITS no formato
// "METHOD /path:REQUESTS:WINDOW_SECONDS" com vírgula entre rotas, por
// exemplo "POST /vault:3:60,GET /vault/items:10:60".
func buildRouteOverrides() (map[string]domain.Policy, error) {
	raw := strings.TrimSpace(os.Getenv("ROUTE_LIMITS"))
	if raw == "" {
		return map[string]domain.Policy{}, nil
	}

	overrides := make(map[string]domain.Policy)
	items := strings.Split(raw, ",")

	for _, item := range items {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("route override must follow ROUTE:REQUESTS:WINDOW_SECONDS: %s", item)
		}

		route := strings.TrimSpace(parts[0])
		if route == "" {
			return nil, fmt.Errorf("route override has an empty route: %s", item)
		}
		requests, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid requests for route %s: %w", route, err)
		}
		windowSeconds, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid window seconds for route %s: %w", route, err)
		}

		overrides[route] = domain.Policy{
			Limit:  requests,
			Window: time.Duration(windowSeconds) * time.Second,
		}
	}

	return overrides, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
