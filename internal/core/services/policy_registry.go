package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
)

// DefaultWindow é a janela aplicada quando uma rota não define a sua.
const DefaultWindow = 60 * time.Second

// PolicyRegistry mapeia identificadores de rota para políticas de limite.
// É estático após a inicialização: nenhuma política muda em runtime.
type PolicyRegistry struct {
	policies   map[string]domain.Policy
	operations map[string]uuid.UUID
}

// NewPolicyRegistry valida e congela o conjunto de políticas.
//
// Janela ausente (zero) recebe DefaultWindow. Limite não positivo ou janela
// negativa são erros de configuração.
func NewPolicyRegistry(policies map[string]domain.Policy, operations map[string]uuid.UUID) (*PolicyRegistry, error) {
	if len(policies) == 0 {
		return nil, fmt.Errorf("at least one route policy is required")
	}

	frozen := make(map[string]domain.Policy, len(policies))
	for route, policy := range policies {
		if route == "" {
			return nil, domain.ErrEmptyRoute
		}
		if policy.Limit <= 0 {
			return nil, fmt.Errorf("policy for route %q must have a positive limit, got %d", route, policy.Limit)
		}
		if policy.Window < 0 {
			return nil, fmt.Errorf("policy for route %q must have a non-negative window, got %v", route, policy.Window)
		}
		if policy.Window == 0 {
			policy.Window = DefaultWindow
		}
		frozen[route] = policy
	}

	ops := make(map[string]uuid.UUID, len(operations))
	for route, id := range operations {
		ops[route] = id
	}

	return &PolicyRegistry{policies: frozen, operations: ops}, nil
}

// PolicyFor devolve a política registrada para a rota.
//
// Rota ausente é erro de configuração/programação: a camada de wiring deve
// tratá-lo como fatal na inicialização, nunca por requisição.
func (r *PolicyRegistry) PolicyFor(route string) (domain.Policy, error) {
	policy, ok := r.policies[route]
	if !ok {
		return domain.Policy{}, fmt.Errorf("%w: %s", domain.ErrNoPolicy, route)
	}
	return policy, nil
}

// OperationID devolve o identificador estável da operação associada à rota,
// ou uuid.Nil quando a rota não tem operação registrada.
func (r *PolicyRegistry) OperationID(route string) uuid.UUID {
	return r.operations[route]
}

// Routes lista os identificadores de rota registrados.
func (r *PolicyRegistry) Routes() []string {
	routes := make([]string, 0, len(r.policies))
	for route := range r.policies {
		routes = append(routes, route)
	}
	return routes
}
