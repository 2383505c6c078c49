// Package domain concentra entidades e estruturas centrais do controle de admissão.
package domain

import (
	"encoding/hex"
	"time"
)

// KeySize é o tamanho em bytes da chave derivada (digest de 256 bits).
const KeySize = 32

// Key identifica um par (rota, credencial) no store de uso.
// É um digest unidirecional: a credencial nunca aparece em chaves ou logs.
type Key [KeySize]byte

// String retorna a representação hexadecimal da chave, segura para logs.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Policy define o limite de requisições e a janela aplicados a uma rota.
type Policy struct {
	Limit  int
	Window time.Duration
}

// UsageRecord guarda o estado de consumo de uma chave dentro da janela atual.
//
// Remaining fica sempre em [0, Limit-1] após qualquer decisão Allow.
// LastSeen é a marca d'água de relógio usada para ignorar retrocessos.
type UsageRecord struct {
	Remaining    int
	WindowExpiry time.Time
	LastSeen     time.Time
}

// Decision é o resultado de uma avaliação de admissão.
//
// Quando Allowed, Remaining carrega o saldo restante da janela.
// Quando negado, RetryAfter carrega o instante em que a janela expira.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Time
}

// Allow constrói uma decisão positiva com o saldo restante.
func Allow(remaining int) Decision {
	return Decision{Allowed: true, Remaining: remaining}
}

// Deny constrói uma decisão negativa apontando quando a janela reabre.
func Deny(retryAfter time.Time) Decision {
	return Decision{Allowed: false, RetryAfter: retryAfter}
}
