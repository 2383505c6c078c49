package memory

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consistentOats/rate-limited-service/internal/core/domain"
	"github.com/consistentOats/rate-limited-service/internal/core/keys"
)

func TestStore_ApplyCreatesAndUpdates(t *testing.T) {
	store := NewStore()
	key := keys.Derive("POST /vault", "abc")

	store.Apply(key, func(rec *domain.UsageRecord) domain.UsageRecord {
		require.Nil(t, rec, "unseen key must be presented as nil")
		return domain.UsageRecord{Remaining: 4}
	})

	store.Apply(key, func(rec *domain.UsageRecord) domain.UsageRecord {
		require.NotNil(t, rec, "seen key must carry its record")
		assert.Equal(t, 4, rec.Remaining)
		rec.Remaining--
		return *rec
	})

	store.Apply(key, func(rec *domain.UsageRecord) domain.UsageRecord {
		require.NotNil(t, rec)
		assert.Equal(t, 3, rec.Remaining)
		return *rec
	})

	assert.Equal(t, 1, store.Len())
}

func TestStore_CreateRaceHasSingleWinner(t *testing.T) {
	const goroutines = 200

	store := NewStore()
	key := keys.Derive("POST /vault", "abc")

	var creations int64
	var wg sync.WaitGroup

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			store.Apply(key, func(rec *domain.UsageRecord) domain.UsageRecord {
				if rec == nil {
					atomic.AddInt64(&creations, 1)
					return domain.UsageRecord{Remaining: 1}
				}
				next := *rec
				next.Remaining++
				return next
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), creations, "exactly one caller may win the create race")
	assert.Equal(t, 1, store.Len())

	store.Apply(key, func(rec *domain.UsageRecord) domain.UsageRecord {
		require.NotNil(t, rec)
		assert.Equal(t, goroutines, rec.Remaining, "every loser must have observed the winner's record")
		return *rec
	})
}

func TestStore_DistinctKeysDoNotInterfere(t *testing.T) {
	store := NewStore()
	first := keys.Derive("POST /vault", "abc")
	second := keys.Derive("POST /vault", "def")

	store.Apply(first, func(rec *domain.UsageRecord) domain.UsageRecord {
		return domain.UsageRecord{Remaining: 1}
	})
	store.Apply(second, func(rec *domain.UsageRecord) domain.UsageRecord {
		require.Nil(t, rec, "a different key must start unseen")
		return domain.UsageRecord{Remaining: 9}
	})

	assert.Equal(t, 2, store.Len())
}

func TestStore_SweepRemovesOnlyStaleRecords(t *testing.T) {
	store := NewStore()
	now := time.Unix(1_700_000_000, 0)

	stale := keys.Derive("POST /vault", "stale")
	fresh := keys.Derive("POST /vault", "fresh")

	store.Apply(stale, func(*domain.UsageRecord) domain.UsageRecord {
		return domain.UsageRecord{WindowExpiry: now.Add(-10 * time.Minute)}
	})
	store.Apply(fresh, func(*domain.UsageRecord) domain.UsageRecord {
		return domain.UsageRecord{WindowExpiry: now.Add(time.Minute)}
	})

	removed := store.Sweep(now, 5*time.Minute)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	store.Apply(fresh, func(rec *domain.UsageRecord) domain.UsageRecord {
		assert.NotNil(t, rec, "record inside its grace period must survive the sweep")
		if rec == nil {
			return domain.UsageRecord{}
		}
		return *rec
	})
}

func TestStore_SweepKeepsRecentlyExpiredWithinGrace(t *testing.T) {
	store := NewStore()
	now := time.Unix(1_700_000_000, 0)

	key := keys.Derive("POST /vault", "abc")
	store.Apply(key, func(*domain.UsageRecord) domain.UsageRecord {
		return domain.UsageRecord{WindowExpiry: now.Add(-time.Minute)}
	})

	assert.Equal(t, 0, store.Sweep(now, 5*time.Minute))
	assert.Equal(t, 1, store.Len())
}
