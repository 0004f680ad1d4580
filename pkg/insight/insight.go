package insight

import (
	"context"

	core "github.com/goliatone/go-insight/components/insight"
	"github.com/goliatone/go-insight/pkg/insightapi"
)

// Widget exposes the underlying components/insight.Widget type.
type Widget = core.Widget

// Config re-export for convenience.
type Config = core.Config

// Service exposes the feed orchestration service.
type Service = core.Service

// ServiceOptions re-export for convenience.
type ServiceOptions = core.ServiceOptions

// RenderOptions re-export for convenience.
type RenderOptions = core.RenderOptions

// Insight re-export for convenience.
type Insight = core.Insight

// NewService proxies to the internal constructor.
func NewService(opts ServiceOptions) *Service {
	return core.NewService(opts)
}

// New builds a widget wired to the HTTP backend client. Config.Fetcher may
// be left nil; it is filled from Config.APIKey and Config.BaseURL.
func New(cfg Config) (*Widget, error) {
	if cfg.Fetcher == nil {
		client, err := insightapi.NewHTTPClient(insightapi.HTTPConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		})
		if err != nil {
			return nil, err
		}
		cfg.Fetcher = client
	}
	return core.New(cfg)
}

// AutoInit scans a page for declarative embed markup and hydrates it using
// the HTTP backend client for credentials found on the page.
func AutoInit(ctx context.Context, doc *core.Document, options ...core.AutoInitOption) (*Widget, []core.RenderResult, error) {
	return core.AutoInit(ctx, doc, DefaultFetcherFactory, options...)
}

// DefaultFetcherFactory builds HTTP fetchers from page credentials.
func DefaultFetcherFactory(apiKey, baseURL string) core.Fetcher {
	client, err := insightapi.NewHTTPClient(insightapi.HTTPConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
	if err != nil {
		return failingFetcher{err: err}
	}
	return client
}

// failingFetcher surfaces construction errors at fetch time so a page with
// bad credentials still renders its error states instead of panicking.
type failingFetcher struct {
	err error
}

func (f failingFetcher) FetchInsight(context.Context, string) (core.Insight, error) {
	return core.Insight{}, f.err
}
