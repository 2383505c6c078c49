// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
)

// StatsStore registra eventos de decisão para telemetria.
//
// Implementações devem ser tratadas como best-effort: um erro de gravação
// nunca pode derrubar a requisição que originou o evento.
type StatsStore interface {
	Record(ctx context.Context, ev domain.DecisionEvent) error
}
