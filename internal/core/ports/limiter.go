// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"github.com/consistentOats/rate-limited-service/internal/core/domain"
)

// Admission decide se uma requisição identificada por (rota, credencial)
// pode prosseguir dentro da janela corrente.
type Admission interface {
	Allow(route, credential string) (domain.Decision, error)
}
