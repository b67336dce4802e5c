// Package cache is the remote data cache: it deduplicates concurrent
// identical requests, caches responses keyed by endpoint plus arguments,
// and re-executes subscribed queries when a mutation invalidates one of
// the tags they provide.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"savora/internal/cache/metrics"
)

// Tag labels the data a query provides and a mutation touches.
type Tag string

// FetchFunc performs the network read for a query.
type FetchFunc func(ctx context.Context) (any, error)

// Result is the outcome of the most recent fetch for a key.
type Result struct {
	Data      any
	Err       error
	FetchedAt time.Time
}

type entry struct {
	tags       []Tag
	fetch      FetchFunc
	result     Result
	hasResult  bool
	stale      bool
	epoch      uint64
	refs       int
	lastAccess time.Time
	subs       map[int]func(Result)
	nextSubID  int
}

func (e *entry) providesAny(tags []Tag) bool {
	for _, t := range tags {
		for _, have := range e.tags {
			if t == have {
				return true
			}
		}
	}
	return false
}

// Store is the cache. A single Store is shared by every query and
// mutation; the only writers are Query, Mutate, and Invalidate.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group
	grace   time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithGCGrace sets how long an entry with no subscribers survives after
// its last access before a sweep drops it.
func WithGCGrace(d time.Duration) Option {
	return func(s *Store) { s.grace = d }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger for refetch failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty cache.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[Key]*entry),
		grace:   time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns the cached value for key, fetching it over the network on
// a miss. Concurrent identical queries are coalesced into one network
// call whose result fans out to every caller. Error results are never
// served from cache; the next call retries the fetch.
func (s *Store) Query(ctx context.Context, key Key, tags []Tag, fetch FetchFunc) (any, error) {
	s.mu.Lock()
	s.sweepLocked()
	e := s.entryLocked(key)
	e.tags = tags
	e.fetch = fetch
	e.lastAccess = s.now()
	if e.hasResult && !e.stale && e.result.Err == nil {
		res := e.result
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.IncrementHits()
		}
		return res.Data, nil
	}
	epoch := e.epoch
	s.mu.Unlock()

	executed := false
	v, err, _ := s.group.Do(flightKey(key, epoch), func() (any, error) {
		executed = true
		return fetch(ctx)
	})
	if s.metrics != nil {
		// Only the caller whose closure ran did network work; everyone
		// else joined its flight.
		if executed {
			s.metrics.IncrementMisses()
		} else {
			s.metrics.IncrementCoalesced()
		}
	}
	s.record(key, Result{Data: v, Err: err, FetchedAt: s.now()}, epoch)
	return v, err
}

// flightKey scopes the singleflight group to the entry's epoch so a fetch
// started before an invalidation is never joined by callers that need
// post-invalidation data.
func flightKey(key Key, epoch uint64) string {
	return key.String() + "#" + strconv.FormatUint(epoch, 10)
}

// Mutate runs a write and, on success, synchronously invalidates the
// given tags. When Mutate returns nil, every subscribed query providing
// one of those tags has already been re-fetched and notified.
func (s *Store) Mutate(ctx context.Context, run func(ctx context.Context) (any, error), invalidates ...Tag) (any, error) {
	v, err := run(ctx)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, invalidates...)
	return v, nil
}

// Invalidate publishes an invalidation for the given tags. Entries with
// subscribers are re-fetched and their subscribers notified before
// Invalidate returns; entries without subscribers are marked stale and
// refetched lazily on their next Query.
func (s *Store) Invalidate(ctx context.Context, tags ...Tag) {
	if len(tags) == 0 {
		return
	}
	if s.metrics != nil {
		for _, t := range tags {
			s.metrics.IncrementInvalidations(string(t))
		}
	}

	type refetchTarget struct {
		key   Key
		fetch FetchFunc
	}
	var targets []refetchTarget

	s.mu.Lock()
	for key, e := range s.entries {
		if !e.providesAny(tags) {
			continue
		}
		e.stale = true
		e.epoch++
		if e.refs > 0 && e.fetch != nil {
			targets = append(targets, refetchTarget{key: key, fetch: e.fetch})
		}
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range targets {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refetch(ctx, t.key, t.fetch)
		}()
	}
	wg.Wait()
}

// Subscription keeps a cache entry alive and delivers refreshed results.
type Subscription struct {
	store *Store
	key   Key
	id    int
	once  sync.Once
}

// Unsubscribe releases the entry. With no subscribers left, the entry
// becomes a garbage-collection candidate after the grace period.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.store.mu.Lock()
		defer sub.store.mu.Unlock()
		e, ok := sub.store.entries[sub.key]
		if !ok {
			return
		}
		delete(e.subs, sub.id)
		if e.refs > 0 {
			e.refs--
		}
		e.lastAccess = sub.store.now()
	})
}

// Subscribe registers interest in a key: onUpdate fires with the fresh
// result every time a mutation invalidates one of the entry's tags. Pair
// it with Query for the initial read.
func (s *Store) Subscribe(key Key, tags []Tag, fetch FetchFunc, onUpdate func(Result)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(key)
	e.tags = tags
	e.fetch = fetch
	e.refs++
	e.lastAccess = s.now()
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = onUpdate
	return &Subscription{store: s, key: key, id: id}
}

// Entry exposes the cached result for a key, if present. Views use it to
// render without forcing a fetch.
func (s *Store) Entry(key Key) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.hasResult {
		return Result{}, false
	}
	return e.result, true
}

// Len reports the number of live entries, stale or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// refetch re-executes a subscribed query after invalidation and notifies
// subscribers. The flight is keyed by the current epoch, so it shares one
// network call with post-invalidation readers but never joins a fetch
// that started before the invalidation. If yet another invalidation lands
// mid-flight, the loop fetches again until the stored result is current.
func (s *Store) refetch(ctx context.Context, key Key, fetch FetchFunc) {
	for {
		s.mu.Lock()
		e, ok := s.entries[key]
		if !ok {
			s.mu.Unlock()
			return
		}
		epoch := e.epoch
		s.mu.Unlock()

		v, err, _ := s.group.Do(flightKey(key, epoch), func() (any, error) {
			return fetch(ctx)
		})
		if s.metrics != nil {
			s.metrics.IncrementRefetches()
		}
		if err != nil && s.log != nil {
			s.log.Warn("refetch after invalidation failed",
				"endpoint", key.Endpoint,
				"error", err,
			)
		}
		if s.record(key, Result{Data: v, Err: err, FetchedAt: s.now()}, epoch) {
			return
		}
	}
}

// record stores a fetch outcome and notifies subscribers outside the
// lock. A result from a superseded epoch is discarded and the entry stays
// stale; it reports whether the result was stored.
func (s *Store) record(key Key, res Result, epoch uint64) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return true
	}
	if e.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	e.result = res
	e.hasResult = true
	e.stale = false
	e.lastAccess = s.now()
	callbacks := make([]func(Result), 0, len(e.subs))
	for _, cb := range e.subs {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(res)
	}
	return true
}

func (s *Store) entryLocked(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{subs: make(map[int]func(Result))}
		s.entries[key] = e
		if s.metrics != nil {
			s.metrics.SetEntries(len(s.entries))
		}
	}
	return e
}

// sweepLocked drops entries with no subscribers whose last access is past
// the grace period. Removal is policy-determined, not immediate.
func (s *Store) sweepLocked() {
	cutoff := s.now().Add(-s.grace)
	removed := false
	for key, e := range s.entries {
		if e.refs == 0 && e.lastAccess.Before(cutoff) {
			delete(s.entries, key)
			removed = true
		}
	}
	if removed && s.metrics != nil {
		s.metrics.SetEntries(len(s.entries))
	}
}
