package insight

import (
	"context"
	"errors"
	"testing"
)

func TestServiceRefreshNotifiesHook(t *testing.T) {
	hook := &collectingHook{}
	service := NewService(ServiceOptions{RefreshHook: hook})

	calls := 0
	feed := NewFeed("models", func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})
	if err := service.RegisterFeed(feed); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := service.Refresh(context.Background(), "models"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected query run, got %d", calls)
	}
	if len(hook.events) != 1 || hook.events[0].CacheKey != "models" {
		t.Fatalf("expected hook event, got %#v", hook.events)
	}
}

func TestServiceRefreshUnknownFeed(t *testing.T) {
	service := NewService(ServiceOptions{})
	err := service.Refresh(context.Background(), "nope")
	if !errors.Is(err, errUnknownFeed) {
		t.Fatalf("expected unknown feed error, got %v", err)
	}
}

func TestServiceRefreshPropagatesQueryError(t *testing.T) {
	hook := &collectingHook{}
	service := NewService(ServiceOptions{RefreshHook: hook})
	feed := NewFeed("models", func(ctx context.Context) (int, error) {
		return 0, errors.New("backend down")
	})
	_ = service.RegisterFeed(feed)

	if err := service.Refresh(context.Background(), "models"); err == nil {
		t.Fatalf("expected refresh error")
	}
	if len(hook.events) != 0 {
		t.Fatalf("expected no hook event on failure, got %#v", hook.events)
	}
}

func TestServiceInvalidate(t *testing.T) {
	service := NewService(ServiceOptions{})
	calls := 0
	feed := NewFeed("usage-stats", func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})
	_ = service.RegisterFeed(feed)

	feed.Load(context.Background())
	if err := service.Invalidate(context.Background(), "usage-stats"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	feed.Load(context.Background())
	if calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", calls)
	}
}

func TestServiceSnapshot(t *testing.T) {
	service := NewService(ServiceOptions{})
	models := NewFeed("models", func(ctx context.Context) ([]string, error) {
		return []string{"m1"}, nil
	})
	usage := NewFeed("usage-stats", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	_ = service.RegisterFeed(models)
	_ = service.RegisterFeed(usage)

	models.Load(context.Background())
	usage.Load(context.Background())

	snapshot, err := service.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected two feeds, got %d", len(snapshot))
	}
	if snapshot["usage-stats"] != 7 {
		t.Fatalf("expected usage value, got %v", snapshot["usage-stats"])
	}
}

func TestServiceKeysSorted(t *testing.T) {
	service := NewService(ServiceOptions{})
	_ = service.RegisterFeed(NewFeed("usage-stats", func(ctx context.Context) (int, error) { return 0, nil }))
	_ = service.RegisterFeed(NewFeed("models", func(ctx context.Context) (int, error) { return 0, nil }))

	keys := service.Keys()
	if len(keys) != 2 || keys[0] != "models" || keys[1] != "usage-stats" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
}

func TestServiceRegisterFeedValidation(t *testing.T) {
	service := NewService(ServiceOptions{})
	if err := service.RegisterFeed(nil); !errors.Is(err, errMissingRunner) {
		t.Fatalf("expected missing runner error, got %v", err)
	}
}

type collectingHook struct {
	events []FeedEvent
}

func (h *collectingHook) FeedRefreshed(_ context.Context, event FeedEvent) error {
	h.events = append(h.events, event)
	return nil
}
