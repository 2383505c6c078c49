// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import "time"

// Clock abstrai a leitura de "agora" para permitir testes determinísticos
// e proteger o motor contra leituras diretas do relógio do sistema.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapta uma função para o contrato Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
