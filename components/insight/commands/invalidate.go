package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// InvalidateFeedInput names the feed cache key to drop.
type InvalidateFeedInput struct {
	CacheKey string `json:"cache_key"`
}

type feedInvalidator interface {
	Invalidate(ctx context.Context, cacheKey string) error
}

// InvalidateFeedCommand drops a feed's cached value so the next load
// re-fetches.
type InvalidateFeedCommand struct {
	service   feedInvalidator
	telemetry Telemetry
}

// NewInvalidateFeedCommand creates the command.
func NewInvalidateFeedCommand(service feedInvalidator, telemetry Telemetry) *InvalidateFeedCommand {
	return &InvalidateFeedCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[InvalidateFeedInput] = (*InvalidateFeedCommand)(nil)

// Execute invalidates the named feed.
func (c *InvalidateFeedCommand) Execute(ctx context.Context, msg InvalidateFeedInput) error {
	if c.service == nil {
		return errors.New("invalidate command requires service")
	}
	if msg.CacheKey == "" {
		return errors.New("invalidate command requires cache key")
	}
	if err := c.service.Invalidate(ctx, msg.CacheKey); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insight.feed.invalidate_command", map[string]any{
		"cache_key": msg.CacheKey,
	})
	return nil
}
