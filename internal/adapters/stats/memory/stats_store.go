// Package memory disponibiliza um sink de telemetria em memória, útil para
// testes e desenvolvimento. Não expira contadores.
package memory

import (
	"context"
	"sync"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/ports"
)

// Counters agrega decisões permitidas e negadas.
type Counters struct {
	Allowed int64
	Denied  int64
}

// StatsStore acumula contadores de decisões em memória.
type StatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
}

var _ ports.StatsStore = (*StatsStore)(nil)

func NewStatsStore() *StatsStore {
	return &StatsStore{byRoute: make(map[string]Counters)}
}

func (s *StatsStore) Record(_ context.Context, ev domain.DecisionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	route := s.byRoute[ev.Route]
	if ev.Allowed {
		s.total.Allowed++
		route.Allowed++
	} else {
		s.total.Denied++
		route.Denied++
	}
	s.byRoute[ev.Route] = route
	return nil
}

func (s *StatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *StatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Counters, len(s.byRoute))
	for route, counters := range s.byRoute {
		out[route] = counters
	}
	return out
}
