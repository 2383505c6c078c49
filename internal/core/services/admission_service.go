// Package services implementa a lógica central de admissão por janela fixa.
package services

import (
	"fmt"
	"time"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/keys"
	"github.com/consistentOats/rate-limited-service/internal/core/ports"
)

// AdmissionService decide, por chave derivada, se uma requisição cabe na
// janela fixa corrente. O store de uso é de propriedade exclusiva deste
// serviço; nenhum outro componente muta registros diretamente.
type AdmissionService struct {
	store    ports.UsageStore
	registry *PolicyRegistry
	clock    ports.Clock
}

// NewAdmissionService cria uma nova instância do serviço.
func NewAdmissionService(store ports.UsageStore, registry *PolicyRegistry, clock ports.Clock) (*AdmissionService, error) {
	if store == nil {
		return nil, fmt.Errorf("usage store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("policy registry is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	return &AdmissionService{store: store, registry: registry, clock: clock}, nil
}

var _ ports.Admission = (*AdmissionService)(nil)

// Allow deriva a chave de (rota, credencial), resolve a política da rota e
// avalia a requisição contra a janela corrente.
func (s *AdmissionService) Allow(route, credential string) (domain.Decision, error) {
	if route == "" {
		return domain.Decision{}, domain.ErrEmptyRoute
	}
	if credential == "" {
		return domain.Decision{}, domain.ErrEmptyCredential
	}

	policy, err := s.registry.PolicyFor(route)
	if err != nil {
		return domain.Decision{}, err
	}

	key := keys.Derive(route, credential)
	return s.Decide(key, policy, s.clock.Now()), nil
}

// Decide executa o algoritmo de janela fixa com refresh preguiçoso.
//
// Os quatro ramos (criação, reset, decremento, negação) rodam como uma única
// unidade atômica por chave, dentro da seção crítica do store: duas
// primeiras requisições concorrentes para a mesma chave nunca vencem ambas a
// corrida de criação, e um registro esgotado nunca concede duas admissões.
func (s *AdmissionService) Decide(key domain.Key, policy domain.Policy, now time.Time) domain.Decision {
	var decision domain.Decision

	s.store.Apply(key, func(rec *domain.UsageRecord) domain.UsageRecord {
		if rec == nil {
			// Primeira requisição da chave: a criação já consome uma unidade.
			decision = domain.Allow(policy.Limit - 1)
			return domain.UsageRecord{
				Remaining:    policy.Limit - 1,
				WindowExpiry: now.Add(policy.Window),
				LastSeen:     now,
			}
		}

		// Relógio que anda para trás nunca reabre uma janela: o instante
		// efetivo nunca recua abaixo da última referência observada.
		effective := now
		if effective.Before(rec.LastSeen) {
			effective = rec.LastSeen
		}

		switch {
		case !rec.WindowExpiry.After(effective):
			// Janela decorrida: reset incondicional, mesmo se esgotada.
			// O reset já consome a requisição atual.
			decision = domain.Allow(policy.Limit - 1)
			return domain.UsageRecord{
				Remaining:    policy.Limit - 1,
				WindowExpiry: effective.Add(policy.Window),
				LastSeen:     effective,
			}
		case rec.Remaining > 0:
			decision = domain.Allow(rec.Remaining - 1)
			return domain.UsageRecord{
				Remaining:    rec.Remaining - 1,
				WindowExpiry: rec.WindowExpiry,
				LastSeen:     effective,
			}
		default:
			// Esgotada dentro da janela: nega sem mutar o registro.
			decision = domain.Deny(rec.WindowExpiry)
			return *rec
		}
	})

	return decision
}
