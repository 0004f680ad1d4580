package insightapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	insight "github.com/goliatone/go-insight/components/insight"
)

const functionsBasePath = "/functions/v1"

// HTTPConfig configures the HTTP backend client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to the EPAI edge-function API. The partner API key rides
// on every request via the x-api-key header.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client capable of hitting the live backend.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("insightapi: base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("insightapi: api key is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

var _ Client = (*HTTPClient)(nil)

// FetchInsight implements InsightClient via the get-public-insight function.
func (c *HTTPClient) FetchInsight(ctx context.Context, insightID string) (insight.Insight, error) {
	raw, err := c.Invoke(ctx, "get-public-insight", map[string]string{"insight_id": insightID})
	if err != nil {
		return insight.Insight{}, err
	}
	var envelope struct {
		Insight insight.Insight `json:"insight"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return insight.Insight{}, fmt.Errorf("insightapi: decode insight %s: %w", insightID, err)
	}
	if envelope.Insight.ID == "" {
		// Some deployments return the insight unwrapped.
		var bare insight.Insight
		if err := json.Unmarshal(raw, &bare); err == nil && bare.ID != "" {
			return bare, nil
		}
	}
	return envelope.Insight, nil
}

// Invoke implements FunctionClient by POSTing to the named edge function.
func (c *HTTPClient) Invoke(ctx context.Context, function string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("insightapi: encode payload: %w", err)
	}
	url := c.baseURL + functionsBasePath + "/" + function
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("insightapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-request-id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insightapi: http request: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("insightapi: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, remoteError(function, resp.StatusCode, buf.Bytes())
	}
	return json.RawMessage(buf.Bytes()), nil
}

// remoteError surfaces the backend's error message when the body carries one,
// otherwise falls back to the HTTP status.
func remoteError(function string, status int, body []byte) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("insightapi: %s: %s", function, envelope.Error)
	}
	return fmt.Errorf("insightapi: %s: remote error %d", function, status)
}
