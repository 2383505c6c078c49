package domain

import "errors"

var (
	// ErrNoPolicy indica uma rota sem política registrada. É um erro de
	// configuração: deve ser fatal na inicialização, nunca por requisição.
	ErrNoPolicy = errors.New("no rate limit policy registered for route")

	// ErrEmptyRoute indica um identificador de rota vazio.
	ErrEmptyRoute = errors.New("route identifier must not be empty")

	// ErrEmptyCredential indica uma credencial vazia. A camada HTTP deve
	// rejeitar esse caso com 401 antes de chamar o core.
	ErrEmptyCredential = errors.New("credential must not be empty")
)

func IsNoPolicyError(err error) bool {
	return errors.Is(err, ErrNoPolicy)
}
