// Package handlers agrupa os handlers HTTP do serviço de cofre.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Identificadores estáveis de rota: método + template do path, nunca o path
// cru com parâmetros do chamador. Um contador por endpoint, não por recurso.
const (
	RoutePostVault     = "POST /vault"
	RouteGetVaultItems = "GET /vault/items"
	RoutePutVaultItem  = "PUT /vault/items/{id}"
)

// Operações públicas do serviço, com identificadores fixos usados em
// telemetria e logs no lugar de credenciais.
var (
	PostVaultOperationID     = uuid.MustParse("4669c1c3-f18c-4fba-9092-ed48b3053c82")
	GetVaultItemsOperationID = uuid.MustParse("3b04da2a-bf73-4cf2-a2f1-efa37cc707d6")
	PutVaultItemOperationID  = uuid.MustParse("b5d2da56-af7b-41df-bd2f-f6c3dd2cc482")
)

// OperationIDs mapeia cada identificador de rota para sua operação.
func OperationIDs() map[string]uuid.UUID {
	return map[string]uuid.UUID{
		RoutePostVault:     PostVaultOperationID,
		RouteGetVaultItems: GetVaultItemsOperationID,
		RoutePutVaultItem:  PutVaultItemOperationID,
	}
}

// Routes lista os identificadores de rota servidos pela aplicação.
func Routes() []string {
	return []string{RoutePostVault, RouteGetVaultItems, RoutePutVaultItem}
}

// PostVaultHandler cria um cofre para a credencial autenticada.
func PostVaultHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "vault created"})
}

// GetVaultItemsHandler lista os itens do cofre.
func GetVaultItemsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": []string{}})
}

// PutVaultItemHandler atualiza um item do cofre identificado pelo path.
func PutVaultItemHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "message": "item updated"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
