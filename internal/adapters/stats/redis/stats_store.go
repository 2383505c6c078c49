// Package redis disponibiliza o sink de telemetria de decisões baseado em Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/ports"
)

// StatsStore grava contadores de decisões em Redis, best-effort.
//
// O estado do limiter em si nunca passa por aqui: Redis guarda apenas
// telemetria agregada (totais, por rota e baldes por minuto com TTL).
type StatsStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.StatsStore = (*StatsStore)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func New(cfg Config) (*StatsStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "admission:stats"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &StatsStore{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (s *StatsStore) Close() error {
	return s.client.Close()
}

// Record acumula o evento nos contadores agregados. Erros devem ser tratados
// pelo chamador como best-effort: nunca derrubam a requisição original.
func (s *StatsStore) Record(ctx context.Context, ev domain.DecisionEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	if ev.Route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", ev.Route+":"+field, 1)
	}
	if ev.Operation != uuid.Nil {
		pipe.HIncrBy(ctx, s.prefix+":operation", ev.Operation.String()+":"+field, 1)
	}

	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	pipe.Expire(ctx, bucketKey, s.ttl)

	_, err := pipe.Exec(ctx)
	return err
}
