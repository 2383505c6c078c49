// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"github.com/consistentOats/rate-limited-service/internal/core/domain"
)

// UsageStore é o mapa concorrente de chave derivada para registro de uso.
//
// Apply executa fn sob a exclusão mútua da chave: fn recebe nil quando a
// chave nunca foi vista e devolve o registro a persistir. Criação, reset,
// decremento e leitura de negação acontecem dentro da mesma seção crítica,
// de modo que decisões para uma mesma chave são linearizáveis. Chaves
// distintas não devem conter entre si.
type UsageStore interface {
	Apply(key domain.Key, fn func(rec *domain.UsageRecord) domain.UsageRecord)
}
