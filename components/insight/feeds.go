package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Backend function names consumed by the admin data feeds.
const (
	FunctionGetModels     = "get-models-optimized"
	FunctionGetUsageStats = "get-usage-stats-optimized"
	FunctionGetInsights   = "get-insights"
	FunctionGetLogs       = "get-partner-logs"
)

// Freshness windows and polling intervals per feed.
const (
	ModelsCacheTTL        = time.Hour
	ModelsRefetchInterval = 30 * time.Minute

	UsageStatsCacheTTL        = 15 * time.Minute
	UsageStatsRefetchInterval = 5 * time.Minute

	InsightsCacheTTL        = 10 * time.Minute
	InsightsRefetchInterval = 2 * time.Minute

	LogsCacheTTL        = 2 * time.Minute
	LogsRefetchInterval = 30 * time.Second
)

// Model describes a predictive model registered for the partner.
type Model struct {
	ID           string    `json:"id"`
	ModelName    string    `json:"model_name"`
	ModelVersion string    `json:"model_version"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// UsageStats aggregates partner ingestion/insight activity.
type UsageStats struct {
	TotalIngestionEvents   int       `json:"total_ingestion_events"`
	TotalInsightsGenerated int       `json:"total_insights_generated"`
	LatestEventTimestamp   time.Time `json:"latest_event_timestamp"`
}

// LogEntry is a single API request log line.
type LogEntry struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	CreatedAt  time.Time `json:"created_at"`
}

// LogPage is one page of request logs.
type LogPage struct {
	Logs     []LogEntry `json:"logs"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

// NewModelsFeed caches the partner's model catalog for an hour, refetching
// every thirty minutes when polled.
func NewModelsFeed(client Invoker, opts ...FeedOption) *Feed[[]Model] {
	opts = append([]FeedOption{
		WithCacheTTL(ModelsCacheTTL),
		WithRefetchInterval(ModelsRefetchInterval),
	}, opts...)
	return NewFeed("models", invokeQuery[[]Model](client, FunctionGetModels, nil), opts...)
}

// NewUsageStatsFeed caches usage statistics for fifteen minutes.
func NewUsageStatsFeed(client Invoker, opts ...FeedOption) *Feed[UsageStats] {
	opts = append([]FeedOption{
		WithCacheTTL(UsageStatsCacheTTL),
		WithRefetchInterval(UsageStatsRefetchInterval),
	}, opts...)
	return NewFeed("usage-stats", invokeQuery[UsageStats](client, FunctionGetUsageStats, nil), opts...)
}

// NewInsightsFeed caches the partner's generated insights for ten minutes.
func NewInsightsFeed(client Invoker, opts ...FeedOption) *Feed[[]Insight] {
	opts = append([]FeedOption{
		WithCacheTTL(InsightsCacheTTL),
		WithRefetchInterval(InsightsRefetchInterval),
	}, opts...)
	return NewFeed("insights", invokeQuery[[]Insight](client, FunctionGetInsights, nil), opts...)
}

// NewLogsFeed caches one page of request logs under a per-page cache key.
func NewLogsFeed(client Invoker, page, pageSize int, opts ...FeedOption) *Feed[LogPage] {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	key := fmt.Sprintf("logs-%d-%d", page, pageSize)
	body := map[string]any{"page": page, "pageSize": pageSize}
	opts = append([]FeedOption{
		WithCacheTTL(LogsCacheTTL),
		WithRefetchInterval(LogsRefetchInterval),
	}, opts...)
	return NewFeed(key, invokeQuery[LogPage](client, FunctionGetLogs, body), opts...)
}

// invokeQuery adapts a backend function invocation into a typed QueryFunc.
func invokeQuery[T any](client Invoker, function string, body any) QueryFunc[T] {
	return func(ctx context.Context) (T, error) {
		var out T
		data, err := client.Invoke(ctx, function, body)
		if err != nil {
			return out, err
		}
		if len(data) == 0 {
			return out, nil
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("insight: decode %s payload: %w", function, err)
		}
		return out, nil
	}
}
