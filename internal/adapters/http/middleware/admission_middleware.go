// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/keys"
	"github.com/consistentOats/rate-limited-service/internal/core/ports"
	"github.com/consistentOats/rate-limited-service/internal/core/services"
)

const (
	missingCredentialMessage = "a bearer credential is required to access this resource"
	rateLimitExceededMessage = "you have reached the maximum number of requests allowed within the current time window"
)

// NewAdmissionMiddleware intercepta cada requisição roteada, extrai a
// credencial bearer e consulta o serviço de admissão antes do handler.
//
// Requisições sem credencial extraível recebem 401 e nunca alcançam o core.
// O identificador de rota é método + template da rota casada (nunca o path
// cru, que embutiria parâmetros do chamador e explodiria o espaço de chaves).
func NewAdmissionMiddleware(limiter ports.Admission, registry *services.PolicyRegistry, clock ports.Clock, stats ports.StatsStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			credential := extractBearerCredential(r)
			if credential == "" {
				writeUnauthorized(w)
				return
			}

			route := routeIdentifier(r)

			decision, err := limiter.Allow(route, credential)
			if err != nil {
				log.Printf("admission check failed for route %s: %v", route, err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			recordDecision(r, stats, registry, clock, route, credential, decision)

			if !decision.Allowed {
				writeTooManyRequests(w, retryAfterSeconds(decision, clock))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerCredential devolve o segredo do header Authorization, ou ""
// quando ausente ou fora do esquema Bearer.
func extractBearerCredential(r *http.Request) string {
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(authorization) <= len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authorization[len(prefix):])
}

// routeIdentifier monta o identificador estável da rota a partir do template
// casado pelo chi (ex.: "PUT /vault/items/{id}").
func routeIdentifier(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return r.Method + " " + pattern
		}
	}
	return r.Method + " " + r.URL.Path
}

// retryAfterSeconds calcula o header Retry-After em segundos, nunca negativo.
func retryAfterSeconds(decision domain.Decision, clock ports.Clock) int {
	if clock == nil {
		return 0
	}
	seconds := int(decision.RetryAfter.Sub(clock.Now()).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// recordDecision envia o evento ao sink de telemetria, best-effort. Apenas a
// chave derivada participa do evento; a credencial bruta nunca é registrada.
func recordDecision(r *http.Request, stats ports.StatsStore, registry *services.PolicyRegistry, clock ports.Clock, route, credential string, decision domain.Decision) {
	if stats == nil {
		return
	}

	ev := domain.DecisionEvent{
		Route:   route,
		Key:     keys.Derive(route, credential),
		Allowed: decision.Allowed,
	}
	if clock != nil {
		ev.At = clock.Now()
	}
	if registry != nil {
		ev.Operation = registry.OperationID(route)
	}

	if err := stats.Record(r.Context(), ev); err != nil {
		log.Printf("failed to record decision event for route %s: %v", route, err)
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(missingCredentialMessage))
}

func writeTooManyRequests(w http.ResponseWriter, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(rateLimitExceededMessage))
}
