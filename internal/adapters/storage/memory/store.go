// Package memory disponibiliza o store de uso em memória com locks por shard.
package memory

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/ports"
)

// shardCount precisa ser potência de dois para o shard ser escolhido por
// máscara sobre o primeiro byte da chave (a chave já é um hash uniforme).
const shardCount = 64

// Store implementa ports.UsageStore com uma tabela de locks por shard:
// chaves em shards diferentes nunca contendem entre si.
type Store struct {
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	records map[domain.Key]domain.UsageRecord
}

var _ ports.UsageStore = (*Store)(nil)

// NewStore cria um store vazio.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].records = make(map[domain.Key]domain.UsageRecord)
	}
	return s
}

// Apply executa fn sob o lock do shard da chave. fn recebe nil quando a
// chave nunca foi vista e devolve o registro a persistir; criação e
// atualização acontecem dentro da mesma seção crítica, então a corrida de
// criação tem um único vencedor.
func (s *Store) Apply(key domain.Key, fn func(rec *domain.UsageRecord) domain.UsageRecord) {
	sh := &s.shards[key[0]&(shardCount-1)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if rec, ok := sh.records[key]; ok {
		sh.records[key] = fn(&rec)
		return
	}
	sh.records[key] = fn(nil)
}

// Len devolve o número de registros no store, incluindo expirados.
func (s *Store) Len() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		total += len(sh.records)
		sh.mu.Unlock()
	}
	return total
}

// Sweep remove registros cuja janela expirou há mais de grace e devolve
// quantos foram removidos. É uma medida de contenção de memória; a correção
// do algoritmo não depende dela, já que o refresh de janela é preguiçoso.
func (s *Store) Sweep(now time.Time, grace time.Duration) int {
	cutoff := now.Add(-grace)
	removed := 0

	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, rec := range sh.records {
			if rec.WindowExpiry.Before(cutoff) {
				delete(sh.records, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// StartJanitor inicia uma goroutine que varre registros obsoletos
// periodicamente. Pare cancelando o contexto.
func (s *Store) StartJanitor(ctx context.Context, clock ports.Clock, every, grace time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Sweep(clock.Now(), grace); removed > 0 {
					log.Printf("usage store sweep removed %d stale records", removed)
				}
			}
		}
	}()
}
