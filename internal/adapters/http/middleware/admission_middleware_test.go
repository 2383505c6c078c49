package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpHandlers "github.com/consistentOats/rate-limited-service/internal/adapters/http/handlers"
	memorystats "github.com/consistentOats/rate-limited-service/internal/adapters/stats/memory"
	memorystore "github.com/consistentOats/rate-limited-service/internal/adapters/storage/memory"
	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/services"
)

func TestMiddleware_MissingCredentialIsUnauthorized(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 3, Window: 60 * time.Second})

	rec := env.do(http.MethodPost, "/vault", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	// Requisições sem credencial nunca alcançam o core nem a telemetria.
	assert.Equal(t, memorystats.Counters{}, env.stats.Total())
}

func TestMiddleware_MalformedAuthorizationIsUnauthorized(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 3, Window: 60 * time.Second})

	req := httptest.NewRequest(http.MethodPost, "/vault", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_AllowedRequestCarriesRemainingHeader(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 3, Window: 60 * time.Second})

	for _, want := range []string{"2", "1", "0"} {
		rec := env.do(http.MethodPost, "/vault", "abc")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestMiddleware_ExhaustedWindowIsTooManyRequests(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 1, Window: 60 * time.Second})

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/vault", "abc").Code)

	rec := env.do(http.MethodPost, "/vault", "abc")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Depois de meio minuto o Retry-After encolhe de acordo.
	env.clock.Advance(30 * time.Second)
	rec = env.do(http.MethodPost, "/vault", "abc")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestMiddleware_WindowReopensAfterExpiry(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 1, Window: 60 * time.Second})

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/vault", "abc").Code)
	require.Equal(t, http.StatusTooManyRequests, env.do(http.MethodPost, "/vault", "abc").Code)

	env.clock.Advance(61 * time.Second)

	rec := env.do(http.MethodPost, "/vault", "abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddleware_CountsPerRouteTemplateNotPerResource(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 2, Window: 60 * time.Second})

	// Ids distintos compartilham o contador do endpoint PUT /vault/items/{id}.
	assert.Equal(t, http.StatusOK, env.do(http.MethodPut, "/vault/items/first", "abc").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPut, "/vault/items/second", "abc").Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodPut, "/vault/items/third", "abc").Code)
}

func TestMiddleware_CredentialsAndRoutesAreIsolated(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 1, Window: 60 * time.Second})

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/vault", "credential-x").Code)
	require.Equal(t, http.StatusTooManyRequests, env.do(http.MethodPost, "/vault", "credential-x").Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/vault", "credential-y").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/vault/items", "credential-x").Code)
}

func TestMiddleware_RecordsDecisionEvents(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 1, Window: 60 * time.Second})

	env.do(http.MethodPost, "/vault", "abc")
	env.do(http.MethodPost, "/vault", "abc")

	total := env.stats.Total()
	assert.Equal(t, int64(1), total.Allowed)
	assert.Equal(t, int64(1), total.Denied)

	byRoute := env.stats.ByRoute()
	assert.Equal(t, memorystats.Counters{Allowed: 1, Denied: 1}, byRoute[httpHandlers.RoutePostVault])
}

func TestMiddleware_PutHandlerEchoesItemID(t *testing.T) {
	env := newTestEnv(t, domain.Policy{Limit: 5, Window: 60 * time.Second})

	rec := env.do(http.MethodPut, "/vault/items/abc-123", "abc")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc-123")
}

type testEnv struct {
	router *chi.Mux
	clock  *fakeClock
	stats  *memorystats.StatsStore
}

// newTestEnv monta o roteador como em cmd/server, com relógio controlável.
func newTestEnv(t *testing.T, policy domain.Policy) *testEnv {
	t.Helper()

	policies := make(map[string]domain.Policy)
	for _, route := range httpHandlers.Routes() {
		policies[route] = policy
	}

	registry, err := services.NewPolicyRegistry(policies, httpHandlers.OperationIDs())
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	stats := memorystats.NewStatsStore()

	limiter, err := services.NewAdmissionService(memorystore.NewStore(), registry, clock)
	require.NoError(t, err)

	admit := NewAdmissionMiddleware(limiter, registry, clock, stats)

	router := chi.NewRouter()
	router.With(admit).Post("/vault", httpHandlers.PostVaultHandler)
	router.With(admit).Get("/vault/items", httpHandlers.GetVaultItemsHandler)
	router.With(admit).Put("/vault/items/{id}", httpHandlers.PutVaultItemHandler)

	return &testEnv{router: router, clock: clock, stats: stats}
}

func (e *testEnv) do(method, target, credential string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
