package insight

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCacheTTL matches the five minute freshness window used by the
// admin data feeds unless a feed overrides it.
const DefaultCacheTTL = 5 * time.Minute

var errFeedDisabled = errors.New("insight: feed is disabled")

// QueryFunc produces a fresh payload for a feed.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// FeedState is the snapshot a feed surfaces to its consumer.
type FeedState[T any] struct {
	Value   T
	Loading bool
	Err     error
	Cached  bool
}

// FeedOption customizes feed behavior.
type FeedOption func(*feedConfig)

type feedConfig struct {
	ttl       time.Duration
	interval  time.Duration
	enabled   bool
	cache     *Cache
	telemetry Telemetry
	onRefresh func(FeedEvent)
	nowFn     func() time.Time
}

// WithCacheTTL overrides the freshness window for stored payloads.
func WithCacheTTL(ttl time.Duration) FeedOption {
	return func(cfg *feedConfig) { cfg.ttl = ttl }
}

// WithRefetchInterval enables periodic background refetching.
func WithRefetchInterval(interval time.Duration) FeedOption {
	return func(cfg *feedConfig) { cfg.interval = interval }
}

// WithEnabled toggles the feed; a disabled feed stays idle and never fetches.
func WithEnabled(enabled bool) FeedOption {
	return func(cfg *feedConfig) { cfg.enabled = enabled }
}

// WithCache shares an external cache between feeds instead of the private
// per-feed default.
func WithCache(cache *Cache) FeedOption {
	return func(cfg *feedConfig) { cfg.cache = cache }
}

// WithFeedTelemetry records feed events.
func WithFeedTelemetry(t Telemetry) FeedOption {
	return func(cfg *feedConfig) { cfg.telemetry = t }
}

// WithOnRefresh registers a callback fired after every committed fetch.
func WithOnRefresh(fn func(FeedEvent)) FeedOption {
	return func(cfg *feedConfig) { cfg.onRefresh = fn }
}

// WithClock injects a clock for deterministic freshness tests.
func WithClock(nowFn func() time.Time) FeedOption {
	return func(cfg *feedConfig) { cfg.nowFn = nowFn }
}

// Feed wraps an arbitrary query function with time-boxed caching, manual and
// periodic refetching, invalidation, and last-request-wins supersession. One
// feed owns one cache key.
type Feed[T any] struct {
	key   string
	query QueryFunc[T]
	cfg   feedConfig

	mu         sync.Mutex
	state      FeedState[T]
	generation uint64

	tickerStop chan struct{}
	tickerDone chan struct{}
}

// NewFeed builds a feed for cacheKey around query.
func NewFeed[T any](cacheKey string, query QueryFunc[T], opts ...FeedOption) *Feed[T] {
	cfg := feedConfig{
		ttl:     DefaultCacheTTL,
		enabled: true,
		nowFn:   time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cache == nil {
		cfg.cache = NewCache()
	}
	cfg.telemetry = normalizeTelemetry(cfg.telemetry)
	return &Feed[T]{
		key:   cacheKey,
		query: query,
		cfg:   cfg,
	}
}

// Key returns the cache key owned by this feed.
func (f *Feed[T]) Key() string { return f.key }

// State returns the last surfaced snapshot.
func (f *Feed[T]) State() FeedState[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Load surfaces a fresh cached value without fetching, or fetches when the
// cache misses or has expired. Disabled feeds stay idle.
func (f *Feed[T]) Load(ctx context.Context) FeedState[T] {
	if !f.cfg.enabled {
		return f.State()
	}
	if value, ok := f.cfg.cache.Get(f.key, f.cfg.nowFn()); ok {
		if typed, ok := value.(T); ok {
			f.mu.Lock()
			f.state = FeedState[T]{Value: typed, Cached: true}
			state := f.state
			f.mu.Unlock()
			f.cfg.telemetry.Record(ctx, "insight.feed.cache_hit", map[string]any{"cache_key": f.key})
			return state
		}
	}
	return f.fetch(ctx, "load")
}

// Refetch bypasses the cache check and always performs a fresh fetch,
// overwriting the cache entry on success.
func (f *Feed[T]) Refetch(ctx context.Context) FeedState[T] {
	if !f.cfg.enabled {
		return f.State()
	}
	return f.fetch(ctx, "refetch")
}

// Refresh adapts Refetch to the error-only contract used by the service
// layer and commands.
func (f *Feed[T]) Refresh(ctx context.Context) error {
	if !f.cfg.enabled {
		return errFeedDisabled
	}
	return f.Refetch(ctx).Err
}

// Invalidate removes the cache entry without triggering a fetch; the next
// Load misses and fetches fresh.
func (f *Feed[T]) Invalidate() {
	f.cfg.cache.Delete(f.key)
}

// Snapshot exposes the current value for type-erased consumers.
func (f *Feed[T]) Snapshot() (any, error) {
	state := f.State()
	return state.Value, state.Err
}

// fetch runs the query under a new generation. A fetch started later bumps
// the generation, so a slow earlier response finds itself stale at commit
// time and is discarded (last-request-wins, not last-response-wins).
func (f *Feed[T]) fetch(ctx context.Context, reason string) FeedState[T] {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.state.Loading = true
	f.state.Err = nil
	f.state.Cached = false
	f.mu.Unlock()

	value, err := f.query(ctx)

	f.mu.Lock()
	if gen != f.generation {
		// superseded by a newer fetch
		state := f.state
		f.mu.Unlock()
		f.cfg.telemetry.Record(ctx, "insight.feed.superseded", map[string]any{"cache_key": f.key})
		return state
	}
	if err != nil {
		// stale-but-present: the cache entry, if any, is left untouched
		f.state.Loading = false
		f.state.Err = err
		state := f.state
		f.mu.Unlock()
		f.cfg.telemetry.Record(ctx, "insight.feed.error", map[string]any{
			"cache_key": f.key,
			"error":     err.Error(),
		})
		return state
	}
	f.cfg.cache.Set(f.key, value, f.cfg.nowFn(), f.cfg.ttl)
	f.state = FeedState[T]{Value: value}
	state := f.state
	f.mu.Unlock()

	f.cfg.telemetry.Record(ctx, "insight.feed.refresh", map[string]any{
		"cache_key": f.key,
		"reason":    reason,
	})
	if f.cfg.onRefresh != nil {
		f.cfg.onRefresh(FeedEvent{CacheKey: f.key, Reason: reason, At: f.cfg.nowFn()})
	}
	return state
}

// Start launches the periodic refetch loop when an interval is configured
// and the feed is enabled. It is a no-op otherwise.
func (f *Feed[T]) Start(ctx context.Context) {
	if f.cfg.interval <= 0 || !f.cfg.enabled {
		return
	}
	f.mu.Lock()
	if f.tickerStop != nil {
		f.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	f.tickerStop = stop
	f.tickerDone = done
	f.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(f.cfg.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.Refetch(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close cancels the periodic refetch loop and invalidates any in-flight
// fetch so it cannot commit after teardown.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	stop := f.tickerStop
	done := f.tickerDone
	f.tickerStop = nil
	f.tickerDone = nil
	f.generation++
	f.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}
