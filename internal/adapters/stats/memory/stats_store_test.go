package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
)

func TestStatsStore_AccumulatesTotalsAndRoutes(t *testing.T) {
	store := NewStatsStore()
	ctx := context.Background()

	assert.NoError(t, store.Record(ctx, domain.DecisionEvent{Route: "POST /vault", Allowed: true}))
	assert.NoError(t, store.Record(ctx, domain.DecisionEvent{Route: "POST /vault", Allowed: false}))
	assert.NoError(t, store.Record(ctx, domain.DecisionEvent{Route: "GET /vault/items", Allowed: true}))

	assert.Equal(t, Counters{Allowed: 2, Denied: 1}, store.Total())

	byRoute := store.ByRoute()
	assert.Equal(t, Counters{Allowed: 1, Denied: 1}, byRoute["POST /vault"])
	assert.Equal(t, Counters{Allowed: 1}, byRoute["GET /vault/items"])
}
