package insight

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
)

// ErrMissingConfigScript is returned when the page has no configuration
// script tag to bootstrap from.
var ErrMissingConfigScript = errors.New("insight: no script tag with data-epai-api-key and data-epai-url found")

// FetcherFactory builds a Fetcher from credentials discovered on the page.
type FetcherFactory func(apiKey, baseURL string) Fetcher

// AutoInitOption customizes declarative initialization.
type AutoInitOption func(*autoInitConfig)

type autoInitConfig struct {
	chart     ChartRenderer
	renderer  Renderer
	telemetry Telemetry
}

// WithAutoInitChart supplies a chart renderer to the bootstrapped widget.
func WithAutoInitChart(chart ChartRenderer) AutoInitOption {
	return func(c *autoInitConfig) { c.chart = chart }
}

// WithAutoInitRenderer overrides the template renderer.
func WithAutoInitRenderer(r Renderer) AutoInitOption {
	return func(c *autoInitConfig) { c.renderer = r }
}

// WithAutoInitTelemetry wires telemetry into the bootstrapped widget.
func WithAutoInitTelemetry(t Telemetry) AutoInitOption {
	return func(c *autoInitConfig) { c.telemetry = t }
}

// RenderResult records the outcome of one declarative embed.
type RenderResult struct {
	Options RenderOptions
	Err     error
}

// AutoInit scans a page for declarative embed markup and hydrates every
// matching container. Configuration comes from the first script tag carrying
// data-epai-api-key and data-epai-url; each element with both
// data-epai-insight-id and data-epai-container-id becomes an embed. A failing
// embed never prevents its siblings from rendering.
func AutoInit(ctx context.Context, doc *Document, factory FetcherFactory, options ...AutoInitOption) (*Widget, []RenderResult, error) {
	cfg := &autoInitConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	script := doc.Find("script[data-epai-api-key][data-epai-url]").First()
	if script.Length() == 0 {
		return nil, nil, ErrMissingConfigScript
	}
	apiKey, _ := script.Attr("data-epai-api-key")
	baseURL, _ := script.Attr("data-epai-url")
	pageTheme := attrOr(script, "data-epai-theme", "")
	defaultStyles := attrOr(script, "data-epai-default-styles", "") != "false"

	widget, err := New(Config{
		APIKey:        apiKey,
		BaseURL:       baseURL,
		Theme:         pageTheme,
		DefaultStyles: &defaultStyles,
		Fetcher:       factory(apiKey, baseURL),
		Renderer:      cfg.renderer,
		Document:      doc,
		Chart:         cfg.chart,
		Telemetry:     cfg.telemetry,
	})
	if err != nil {
		return nil, nil, err
	}

	var results []RenderResult
	doc.Find("[data-epai-insight-id][data-epai-container-id]").Each(func(_ int, sel *goquery.Selection) {
		opts := embedOptions(sel, pageTheme)
		results = append(results, RenderResult{
			Options: opts,
			Err:     widget.RenderInsight(ctx, opts),
		})
	})
	return widget, results, nil
}

func embedOptions(sel *goquery.Selection, pageTheme string) RenderOptions {
	insightID, _ := sel.Attr("data-epai-insight-id")
	containerID, _ := sel.Attr("data-epai-container-id")
	showTitle := attrOr(sel, "data-epai-show-title", "") != "false"
	showConfidence := attrOr(sel, "data-epai-show-confidence", "") != "false"
	return RenderOptions{
		InsightID:      insightID,
		ContainerID:    containerID,
		Theme:          attrOr(sel, "data-epai-theme", pageTheme),
		ShowTitle:      &showTitle,
		ShowConfidence: &showConfidence,
		Compact:        attrOr(sel, "data-epai-compact", "") == "true",
	}
}

func attrOr(sel *goquery.Selection, name, fallback string) string {
	if v, ok := sel.Attr(name); ok {
		return v
	}
	return fallback
}
