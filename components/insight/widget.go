package insight

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrMissingAPIKey reports a widget configured without credentials.
	ErrMissingAPIKey = errors.New("insight: api key is required")
	// ErrMissingFetcher reports a widget configured without a backend client.
	ErrMissingFetcher = errors.New("insight: fetcher is required")
	// ErrContainerNotFound reports a render call against an absent container.
	ErrContainerNotFound = errors.New("insight: container not found")
	// ErrMissingInsightID reports a render call without an insight id.
	ErrMissingInsightID = errors.New("insight: insight id is required")
)

// ContainerClass tags every container the widget has rendered into.
const ContainerClass = "epai-insight-container"

// Config configures one widget instance. Every collaborator is provided via
// interface so embedders can swap implementations without importing other
// go-insight packages.
type Config struct {
	APIKey        string
	BaseURL       string
	Theme         string
	DefaultStyles *bool
	Fetcher       Fetcher
	Renderer      Renderer
	Document      HostDocument
	Chart         ChartRenderer
	Telemetry     Telemetry
}

// Widget fetches insights with per-id caching plus request de-duplication
// and renders them into a host document as a full card or compact badge.
type Widget struct {
	cfg      Config
	renderer Renderer

	mu     sync.RWMutex
	loaded map[string]Insight
	group  singleflight.Group
}

// New builds a widget instance with safe defaults. When the config carries a
// host document and default styles are not disabled, the shared stylesheet
// is injected exactly once.
func New(cfg Config) (*Widget, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Fetcher == nil {
		return nil, ErrMissingFetcher
	}
	cfg.Theme = normalizeTheme(cfg.Theme)
	cfg.Telemetry = normalizeTelemetry(cfg.Telemetry)
	renderer := cfg.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("insight: build template renderer: %w", err)
		}
	}
	w := &Widget{
		cfg:      cfg,
		renderer: renderer,
		loaded:   make(map[string]Insight),
	}
	if cfg.Document != nil && (cfg.DefaultStyles == nil || *cfg.DefaultStyles) {
		w.injectStyles(cfg.Document)
	}
	return w, nil
}

// injectStyles adds the shared stylesheet once per document, keyed by the
// marker element id.
func (w *Widget) injectStyles(doc HostDocument) {
	if doc.HasStylesheet(StylesheetID) {
		return
	}
	doc.InjectStylesheet(StylesheetID, defaultStylesheet)
}

// FetchInsight returns the insight for id, serving repeated calls from the
// in-memory cache and coalescing concurrent calls for the same id onto one
// request. A failed fetch releases the in-flight slot so later calls retry.
func (w *Widget) FetchInsight(ctx context.Context, insightID string) (Insight, error) {
	if insightID == "" {
		return Insight{}, ErrMissingInsightID
	}
	w.mu.RLock()
	cached, ok := w.loaded[insightID]
	w.mu.RUnlock()
	if ok {
		return cached, nil
	}

	value, err, _ := w.group.Do(insightID, func() (any, error) {
		w.mu.RLock()
		cached, ok := w.loaded[insightID]
		w.mu.RUnlock()
		if ok {
			return cached, nil
		}
		ins, err := w.cfg.Fetcher.FetchInsight(ctx, insightID)
		if err != nil {
			return Insight{}, err
		}
		w.mu.Lock()
		w.loaded[insightID] = ins
		w.mu.Unlock()
		return ins, nil
	})
	if err != nil {
		w.cfg.Telemetry.Record(ctx, "insight.widget.fetch_error", map[string]any{
			"insight_id": insightID,
			"error":      err.Error(),
		})
		return Insight{}, err
	}
	return value.(Insight), nil
}

// RenderInsight resolves the container, fetches the insight, and swaps the
// container content through loading, error, and rendered states. Fetch and
// render failures land in the DOM as an inline error and are also returned.
func (w *Widget) RenderInsight(ctx context.Context, opts RenderOptions) error {
	if w.cfg.Document == nil {
		return errors.New("insight: widget has no host document")
	}
	if opts.ContainerID == "" {
		return fmt.Errorf("insight: render %s: %w", opts.InsightID, ErrContainerNotFound)
	}
	container, ok := w.cfg.Document.ElementByID(opts.ContainerID)
	if !ok {
		return fmt.Errorf("insight: container %q: %w", opts.ContainerID, ErrContainerNotFound)
	}

	container.AddClass(ContainerClass)
	if loading, err := w.renderer.Render("loading", map[string]any{}); err == nil {
		_ = container.SetHTML(loading)
	}

	html, err := w.RenderHTML(ctx, opts)
	if err != nil {
		w.renderError(container, err)
		return err
	}
	if err := container.SetHTML(html); err != nil {
		return fmt.Errorf("insight: write container %q: %w", opts.ContainerID, err)
	}
	w.cfg.Telemetry.Record(ctx, "insight.widget.render", map[string]any{
		"insight_id":   opts.InsightID,
		"container_id": opts.ContainerID,
		"compact":      opts.Compact,
	})
	return nil
}

// RenderHTML fetches the insight and returns the card or badge markup
// without touching any document. Server-side embed routes use this directly.
func (w *Widget) RenderHTML(ctx context.Context, opts RenderOptions) (string, error) {
	ins, err := w.FetchInsight(ctx, opts.InsightID)
	if err != nil {
		return "", err
	}
	model := BuildDisplayModel(ins)
	theme := opts.Theme
	if theme == "" {
		theme = w.cfg.Theme
	}
	palette := PaletteFor(theme)

	data := map[string]any{
		"theme":           palette.Name,
		"palette_inline":  palette.TokensInline(),
		"title":           model.Title,
		"value":           model.Value,
		"description":     model.Description,
		"confidence_pct":  model.ConfidencePct(),
		"generated_date":  model.GeneratedDate,
		"model_name":      model.ModelName,
		"show_title":      opts.showTitle(),
		"show_confidence": opts.showConfidence(),
	}
	if !opts.Compact && w.cfg.Chart != nil {
		if chart, err := w.cfg.Chart.RenderTrend(ins, palette); err == nil && chart != "" {
			data["chart_html"] = chart
		}
	}

	name := "card"
	if opts.Compact {
		name = "badge"
	}
	html, err := w.renderer.Render(name, data)
	if err != nil {
		return "", fmt.Errorf("insight: render %s template: %w", name, err)
	}
	return html, nil
}

// InvalidateInsight drops the cached copy of one insight so the next fetch
// hits the backend again.
func (w *Widget) InvalidateInsight(insightID string) {
	w.mu.Lock()
	delete(w.loaded, insightID)
	w.mu.Unlock()
}

func (w *Widget) renderError(container Element, cause error) {
	html, err := w.renderer.Render("error", map[string]any{"message": cause.Error()})
	if err != nil {
		_ = container.SetHTML(`<div class="epai-insight-error">Failed to load insight</div>`)
		return
	}
	_ = container.SetHTML(html)
}
