package insightapi

import (
	"context"
	"encoding/json"

	insight "github.com/goliatone/go-insight/components/insight"
)

// InsightClient fetches single public insights from the EPAI backend.
type InsightClient interface {
	FetchInsight(ctx context.Context, insightID string) (insight.Insight, error)
}

// FunctionClient invokes arbitrary backend edge functions.
type FunctionClient interface {
	Invoke(ctx context.Context, function string, body any) (json.RawMessage, error)
}

// Client is a convenience union for services that implement all backend calls.
type Client interface {
	InsightClient
	FunctionClient
}
