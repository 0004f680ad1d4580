package insightapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	insight "github.com/goliatone/go-insight/components/insight"
)

// MockData seeds deterministic backend responses for tests or local demos.
type MockData struct {
	Insights  map[string]insight.Insight
	Functions map[string]json.RawMessage
}

// MockClient implements Client using in-memory fixtures.
type MockClient struct {
	data  MockData
	mu    sync.RWMutex
	calls map[string]int
}

// NewMockClient builds a mock backend client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	if data.Insights == nil {
		data.Insights = map[string]insight.Insight{}
	}
	if data.Functions == nil {
		data.Functions = map[string]json.RawMessage{}
	}
	return &MockClient{data: data, calls: map[string]int{}}
}

var _ Client = (*MockClient)(nil)

// FetchInsight returns the configured insight fixture.
func (c *MockClient) FetchInsight(_ context.Context, insightID string) (insight.Insight, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["insight:"+insightID]++
	ins, ok := c.data.Insights[insightID]
	if !ok {
		return insight.Insight{}, fmt.Errorf("insightapi: insight %s not found", insightID)
	}
	return ins, nil
}

// Invoke returns the configured function fixture.
func (c *MockClient) Invoke(_ context.Context, function string, _ any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["function:"+function]++
	raw, ok := c.data.Functions[function]
	if !ok {
		return nil, fmt.Errorf("insightapi: function %s not found", function)
	}
	return append(json.RawMessage(nil), raw...), nil
}

// Calls reports how many times a fixture was served, keyed by
// "insight:<id>" or "function:<name>".
func (c *MockClient) Calls(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[key]
}
