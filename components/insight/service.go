package insight

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	errUnknownFeed   = errors.New("insight: unknown feed")
	errMissingRunner = errors.New("insight: feed runner is required")
)

// Runner is the feed surface the service orchestrates. Every Feed[T]
// satisfies it regardless of payload type.
type Runner interface {
	Key() string
	Refresh(ctx context.Context) error
	Invalidate()
	Snapshot() (any, error)
	Start(ctx context.Context)
	Close()
}

// ServiceOptions configures the feed Service. Collaborators are provided via
// interface so applications can swap implementations.
type ServiceOptions struct {
	RefreshHook RefreshHook
	Validator   OutputValidator
	Telemetry   Telemetry
}

// Service orchestrates a set of named feeds: registration, on-demand
// refresh, invalidation, snapshots, and background polling.
type Service struct {
	opts  ServiceOptions
	mu    sync.RWMutex
	feeds map[string]Runner
}

// NewService builds a Service instance with safe defaults.
func NewService(opts ServiceOptions) *Service {
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Validator == nil {
		opts.Validator = noopOutputValidator{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{
		opts:  opts,
		feeds: make(map[string]Runner),
	}
}

// RegisterFeed adds a feed to the service. Registering the same key twice
// replaces the previous runner after closing it.
func (s *Service) RegisterFeed(runner Runner) error {
	if runner == nil {
		return errMissingRunner
	}
	key := runner.Key()
	if key == "" {
		return fmt.Errorf("insight: feed key is required")
	}
	s.mu.Lock()
	if existing, ok := s.feeds[key]; ok {
		existing.Close()
	}
	s.feeds[key] = runner
	s.mu.Unlock()
	return nil
}

// Refresh re-fetches one feed and notifies the refresh hook on success.
func (s *Service) Refresh(ctx context.Context, cacheKey string) error {
	runner, err := s.runner(cacheKey)
	if err != nil {
		return err
	}
	if err := runner.Refresh(ctx); err != nil {
		return err
	}
	event := FeedEvent{CacheKey: cacheKey, Reason: "refresh", At: time.Now()}
	if err := s.opts.RefreshHook.FeedRefreshed(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "insight.service.refresh", map[string]any{
		"cache_key": cacheKey,
	})
	return nil
}

// Invalidate drops a feed's cached value so the next load hits the network.
func (s *Service) Invalidate(ctx context.Context, cacheKey string) error {
	runner, err := s.runner(cacheKey)
	if err != nil {
		return err
	}
	runner.Invalidate()
	s.recordTelemetry(ctx, "insight.service.invalidate", map[string]any{
		"cache_key": cacheKey,
	})
	return nil
}

// Snapshot returns the current value of every registered feed keyed by cache
// key. Feeds that have never loaded report a nil value.
func (s *Service) Snapshot(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	runners := make([]Runner, 0, len(s.feeds))
	for _, r := range s.feeds {
		runners = append(runners, r)
	}
	s.mu.RUnlock()

	out := make(map[string]any, len(runners))
	for _, r := range runners {
		value, err := r.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("insight: snapshot feed %s: %w", r.Key(), err)
		}
		out[r.Key()] = value
	}
	s.recordTelemetry(ctx, "insight.service.snapshot", map[string]any{
		"feeds": len(out),
	})
	return out, nil
}

// Keys lists the registered feed keys in sorted order.
func (s *Service) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.feeds))
	for key := range s.feeds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ValidateInsight checks an insight against the configured output validator.
func (s *Service) ValidateInsight(ins Insight) error {
	return s.opts.Validator.Validate(ins)
}

// StartPolling launches every feed's background refetch loop.
func (s *Service) StartPolling(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.feeds {
		r.Start(ctx)
	}
}

// Close stops all background loops and cancels in-flight fetches.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.feeds {
		r.Close()
	}
}

func (s *Service) runner(cacheKey string) (Runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.feeds[cacheKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownFeed, cacheKey)
	}
	return runner, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

type noopRefreshHook struct{}

func (noopRefreshHook) FeedRefreshed(context.Context, FeedEvent) error {
	return nil
}
