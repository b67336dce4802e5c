package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savora/internal/cache/metrics"
)

// Registered once on the default registry for the whole test binary.
var testMetrics = metrics.New()

const (
	tagProducts Tag = "Products"
	tagCart     Tag = "Cart"
)

func countingFetch(calls *atomic.Int32, value any) FetchFunc {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestQuery_CachesResult(t *testing.T) {
	s := NewStore()
	var calls atomic.Int32
	key := NewKey("/users/get-all-products", nil)

	v, err := s.Query(context.Background(), key, []Tag{tagProducts}, countingFetch(&calls, "menu-v1"))
	require.NoError(t, err)
	assert.Equal(t, "menu-v1", v)

	v, err = s.Query(context.Background(), key, []Tag{tagProducts}, countingFetch(&calls, "menu-v2"))
	require.NoError(t, err)
	assert.Equal(t, "menu-v1", v, "second read must come from cache")
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_DistinctArgsAreDistinctEntries(t *testing.T) {
	s := NewStore()
	var calls atomic.Int32

	k1 := NewKey("/users/products", map[string]string{"id": "p1"})
	k2 := NewKey("/users/products", map[string]string{"id": "p2"})

	_, err := s.Query(context.Background(), k1, []Tag{tagProducts}, countingFetch(&calls, "p1"))
	require.NoError(t, err)
	_, err = s.Query(context.Background(), k2, []Tag{tagProducts}, countingFetch(&calls, "p2"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_CoalescesConcurrentIdenticalRequests(t *testing.T) {
	s := NewStore()
	var calls atomic.Int32
	key := NewKey("/users/get-cart", nil)

	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "cart", nil
	}

	const goroutines = 16
	results := make([]any, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := s.Query(context.Background(), key, []Tag{tagCart}, fetch)
			assert.NoError(t, err)
			results[idx] = v
		}(i)
	}

	// Let every goroutine pile onto the in-flight request, then release.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "identical concurrent queries must share one network call")
	for _, v := range results {
		assert.Equal(t, "cart", v)
	}
}

// gatedVersionFetch returns cart-v1, cart-v2, ... and blocks the first
// call until release is closed, signalling entry on entered.
func gatedVersionFetch(entered, release chan struct{}) FetchFunc {
	var version atomic.Int32
	return func(ctx context.Context) (any, error) {
		n := version.Add(1)
		if n == 1 {
			close(entered)
			<-release
		}
		return fmt.Sprintf("cart-v%d", n), nil
	}
}

func TestQuery_InvalidationDuringFetchIsNotLost(t *testing.T) {
	s := NewStore()
	key := NewKey("/users/get-cart", nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	fetch := gatedVersionFetch(entered, release)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := s.Query(context.Background(), key, []Tag{tagCart}, fetch)
		assert.NoError(t, err)
		assert.Equal(t, "cart-v1", v)
	}()
	<-entered

	// The mutation completes while the first fetch is still on the wire;
	// its result must not be recorded as fresh.
	_, err := s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		return "added", nil
	}, tagCart)
	require.NoError(t, err)

	close(release)
	<-done

	v, err := s.Query(context.Background(), key, []Tag{tagCart}, fetch)
	require.NoError(t, err)
	assert.Equal(t, "cart-v2", v, "read after mutation must be fresh, not pre-mutation data")
}

func TestSubscribe_RefetchSkipsPreInvalidationFlight(t *testing.T) {
	s := NewStore()
	key := NewKey("/users/get-cart", nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	fetch := gatedVersionFetch(entered, release)

	var mu sync.Mutex
	var latest any
	sub := s.Subscribe(key, []Tag{tagCart}, fetch, func(res Result) {
		mu.Lock()
		latest = res.Data
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Query(context.Background(), key, []Tag{tagCart}, fetch)
	}()
	<-entered

	// The refetch triggered here must run its own fetch, not join the
	// stalled pre-mutation one.
	_, err := s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		return "added", nil
	}, tagCart)
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, "cart-v2", latest, "subscriber must hold post-mutation data when Mutate returns")
	mu.Unlock()

	close(release)
	<-done

	v, err := s.Query(context.Background(), key, []Tag{tagCart}, fetch)
	require.NoError(t, err)
	assert.Equal(t, "cart-v2", v, "the late first fetch must not overwrite the fresh result")
}

func TestQuery_ErrorsAreNotCached(t *testing.T) {
	s := NewStore()
	var calls atomic.Int32
	key := NewKey("/users/get-cart", nil)

	fail := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, errors.New("backend down")
	}

	_, err := s.Query(context.Background(), key, []Tag{tagCart}, fail)
	require.Error(t, err)

	_, err = s.Query(context.Background(), key, []Tag{tagCart}, fail)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load(), "a failed read must retry on the next call")
}

func TestMutate_InvalidatesProvidedTags(t *testing.T) {
	s := NewStore()
	key := NewKey("/users/get-cart", nil)

	version := atomic.Int32{}
	fetch := func(ctx context.Context) (any, error) {
		return int(version.Add(1)), nil
	}

	v, err := s.Query(context.Background(), key, []Tag{tagCart}, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		return "added", nil
	}, tagCart)
	require.NoError(t, err)

	v, err = s.Query(context.Background(), key, []Tag{tagCart}, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "cart read after a cart mutation must be fresh")
}

func TestMutate_FailedMutationInvalidatesNothing(t *testing.T) {
	s := NewStore()
	key := NewKey("/users/get-cart", nil)
	var calls atomic.Int32

	_, err := s.Query(context.Background(), key, []Tag{tagCart}, countingFetch(&calls, "cart"))
	require.NoError(t, err)

	_, err = s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("rejected")
	}, tagCart)
	require.Error(t, err)

	_, err = s.Query(context.Background(), key, []Tag{tagCart}, countingFetch(&calls, "cart"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMutate_UnrelatedTagsUntouched(t *testing.T) {
	s := NewStore()
	productsKey := NewKey("/users/get-all-products", nil)
	var calls atomic.Int32

	_, err := s.Query(context.Background(), productsKey, []Tag{tagProducts}, countingFetch(&calls, "menu"))
	require.NoError(t, err)

	_, err = s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		return "ok", nil
	}, tagCart)
	require.NoError(t, err)

	_, err = s.Query(context.Background(), productsKey, []Tag{tagProducts}, countingFetch(&calls, "menu"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubscribe_RefetchesAndNotifiesOnInvalidation(t *testing.T) {
	s := NewStore()
	key := NewKey("/users/get-cart", nil)

	version := atomic.Int32{}
	fetch := func(ctx context.Context) (any, error) {
		return int(version.Add(1)), nil
	}

	var mu sync.Mutex
	var seen []any
	sub := s.Subscribe(key, []Tag{tagCart}, fetch, func(res Result) {
		mu.Lock()
		seen = append(seen, res.Data)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	_, err := s.Query(context.Background(), key, []Tag{tagCart}, fetch)
	require.NoError(t, err)

	// A successful mutation re-executes the subscribed query before
	// Mutate returns; no manual refetch needed.
	_, err = s.Mutate(context.Background(), func(ctx context.Context) (any, error) {
		return "updated", nil
	}, tagCart)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 2, seen[len(seen)-1])
}

func TestSubscribe_UnsubscribedEntryRefetchedLazily(t *testing.T) {
	s := NewStore()
	key := NewKey("/users/get-cart", nil)
	var calls atomic.Int32

	sub := s.Subscribe(key, []Tag{tagCart}, countingFetch(&calls, "cart"), func(Result) {})
	_, err := s.Query(context.Background(), key, []Tag{tagCart}, countingFetch(&calls, "cart"))
	require.NoError(t, err)
	sub.Unsubscribe()

	s.Invalidate(context.Background(), tagCart)
	assert.Equal(t, int32(1), calls.Load(), "no subscriber, no eager refetch")

	_, err = s.Query(context.Background(), key, []Tag{tagCart}, countingFetch(&calls, "cart"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "stale entry refetches on next read")
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	s := NewStore()
	key := NewKey("/users/get-cart", nil)

	sub1 := s.Subscribe(key, []Tag{tagCart}, countingFetch(new(atomic.Int32), "c"), func(Result) {})
	sub2 := s.Subscribe(key, []Tag{tagCart}, countingFetch(new(atomic.Int32), "c"), func(Result) {})

	sub1.Unsubscribe()
	sub1.Unsubscribe()

	// The second subscription still holds the entry.
	var calls atomic.Int32
	_, err := s.Query(context.Background(), key, []Tag{tagCart}, countingFetch(&calls, "c"))
	require.NoError(t, err)
	s.Invalidate(context.Background(), tagCart)
	assert.Equal(t, int32(2), calls.Load())

	sub2.Unsubscribe()
}

func TestSweep_DropsIdleEntriesAfterGrace(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		current = current.Add(d)
		mu.Unlock()
	}

	s := NewStore(WithGCGrace(30*time.Second), WithClock(now))
	key := NewKey("/users/get-all-products", nil)
	var calls atomic.Int32

	_, err := s.Query(context.Background(), key, nil, countingFetch(&calls, "menu"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	advance(time.Minute)
	_, err = s.Query(context.Background(), NewKey("/users/categories", nil), nil, countingFetch(&calls, "cats"))
	require.NoError(t, err)

	_, ok := s.Entry(key)
	assert.False(t, ok, "idle entry past grace must be swept")
}

func TestSweep_SubscribedEntriesSurvive(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	s := NewStore(WithGCGrace(30*time.Second), WithClock(now))
	key := NewKey("/users/get-cart", nil)
	var calls atomic.Int32

	sub := s.Subscribe(key, []Tag{tagCart}, countingFetch(&calls, "cart"), func(Result) {})
	defer sub.Unsubscribe()
	_, err := s.Query(context.Background(), key, []Tag{tagCart}, countingFetch(&calls, "cart"))
	require.NoError(t, err)

	mu.Lock()
	current = current.Add(time.Hour)
	mu.Unlock()
	_, err = s.Query(context.Background(), NewKey("/other", nil), nil, countingFetch(&calls, "x"))
	require.NoError(t, err)

	_, ok := s.Entry(key)
	assert.True(t, ok, "subscribed entries are never swept")
}

func TestMetrics_CoalescedBurstCountsOneMiss(t *testing.T) {
	s := NewStore(WithMetrics(testMetrics))
	key := NewKey("/users/get-all-products", nil)

	missesBefore := promtestutil.ToFloat64(testMetrics.Misses)
	coalescedBefore := promtestutil.ToFloat64(testMetrics.Coalesced)
	hitsBefore := promtestutil.ToFloat64(testMetrics.Hits)

	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		<-release
		return "menu", nil
	}

	const goroutines = 8
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Query(context.Background(), key, []Tag{tagProducts}, fetch)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// The caller that did the network work is a miss; only the joiners
	// count as coalesced.
	assert.Equal(t, 1.0, promtestutil.ToFloat64(testMetrics.Misses)-missesBefore)
	assert.Equal(t, float64(goroutines-1), promtestutil.ToFloat64(testMetrics.Coalesced)-coalescedBefore)

	_, err := s.Query(context.Background(), key, []Tag{tagProducts}, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(testMetrics.Hits)-hitsBefore)
}

func TestNewKey_Deterministic(t *testing.T) {
	k1 := NewKey("/users/getByCategory", map[string]string{"category": "pizza", "sort": "name"})
	k2 := NewKey("/users/getByCategory", map[string]string{"sort": "name", "category": "pizza"})
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, NewKey("/users/getByCategory", map[string]string{"category": "drinks"}))
}
