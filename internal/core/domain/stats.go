package domain

import (
	"time"

	"github.com/google/uuid"
)

// DecisionEvent descreve uma decisão de admissão para fins de telemetria.
//
// Carrega apenas a chave derivada e identificadores de rota; a credencial
// bruta nunca participa do evento.
type DecisionEvent struct {
	Operation uuid.UUID
	Route     string
	Key       Key
	Allowed   bool
	At        time.Time
}
