// Package keys deriva chaves opacas de lookup a partir de (rota, credencial).
package keys

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
)

// Derive produz a chave unidirecional que identifica um par (rota, credencial).
//
// Função pura e determinística: entradas idênticas produzem sempre a mesma
// chave, e recuperar rota ou credencial a partir dela é computacionalmente
// inviável (digest BLAKE2b de 256 bits). Cada campo entra no digest com
// prefixo de tamanho, então pares distintos nunca produzem o mesmo fluxo de
// bytes — ("A", "B:C") e ("A:B", "C") não colidem.
func Derive(route, credential string) domain.Key {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 só falha com chave MAC maior que 64 bytes.
		panic(err)
	}

	var lenBuf [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(lenBuf[:], uint64(len(route)))
	h.Write(lenBuf[:n])
	h.Write([]byte(route))

	n = binary.PutUvarint(lenBuf[:], uint64(len(credential)))
	h.Write(lenBuf[:n])
	h.Write([]byte(credential))

	var key domain.Key
	h.Sum(key[:0])
	return key
}
