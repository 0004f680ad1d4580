package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshFeedInput names the feed cache key to refresh.
type RefreshFeedInput struct {
	CacheKey string `json:"cache_key"`
	Reason   string `json:"reason,omitempty"`
}

type feedRefresher interface {
	Refresh(ctx context.Context, cacheKey string) error
}

// RefreshFeedCommand re-fetches a feed through the service so refresh hooks
// and telemetry fire.
type RefreshFeedCommand struct {
	service   feedRefresher
	telemetry Telemetry
}

// NewRefreshFeedCommand creates the command.
func NewRefreshFeedCommand(service feedRefresher, telemetry Telemetry) *RefreshFeedCommand {
	return &RefreshFeedCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshFeedInput] = (*RefreshFeedCommand)(nil)

// Execute refreshes the named feed.
func (c *RefreshFeedCommand) Execute(ctx context.Context, msg RefreshFeedInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if msg.CacheKey == "" {
		return errors.New("refresh command requires cache key")
	}
	if err := c.service.Refresh(ctx, msg.CacheKey); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insight.feed.refresh_command", map[string]any{
		"cache_key": msg.CacheKey,
		"reason":    msg.Reason,
	})
	return nil
}
