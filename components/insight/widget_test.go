package insight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Fetcher: &fakeFetcher{}}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key error, got %v", err)
	}
	if _, err := New(Config{APIKey: "k"}); !errors.Is(err, ErrMissingFetcher) {
		t.Fatalf("expected missing fetcher error, got %v", err)
	}
}

func TestNewInjectsStylesheetOnce(t *testing.T) {
	doc := newFakeDoc()
	cfg := Config{APIKey: "k", Fetcher: &fakeFetcher{}, Renderer: fakeRenderer{}, Document: doc}
	if _, err := New(cfg); err != nil {
		t.Fatalf("new widget: %v", err)
	}
	if _, err := New(cfg); err != nil {
		t.Fatalf("new widget: %v", err)
	}
	if doc.injections != 1 {
		t.Fatalf("expected one stylesheet injection, got %d", doc.injections)
	}
	if doc.styles[StylesheetID] == "" {
		t.Fatalf("expected stylesheet stored under %s", StylesheetID)
	}
}

func TestNewSkipsStylesWhenDisabled(t *testing.T) {
	doc := newFakeDoc()
	off := false
	_, err := New(Config{APIKey: "k", Fetcher: &fakeFetcher{}, Renderer: fakeRenderer{}, Document: doc, DefaultStyles: &off})
	if err != nil {
		t.Fatalf("new widget: %v", err)
	}
	if doc.injections != 0 {
		t.Fatalf("expected no stylesheet injection, got %d", doc.injections)
	}
}

func TestFetchInsightCachesPerID(t *testing.T) {
	fetcher := &fakeFetcher{insights: map[string]Insight{
		"ins-1": {ID: "ins-1", ModelName: "churn"},
	}}
	w := newTestWidget(t, fetcher, nil)

	for i := 0; i < 3; i++ {
		if _, err := w.FetchInsight(context.Background(), "ins-1"); err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}
	if fetcher.Calls("ins-1") != 1 {
		t.Fatalf("expected one network call, got %d", fetcher.Calls("ins-1"))
	}
}

func TestFetchInsightDeduplicatesConcurrentCalls(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	fetcher := &fakeFetcher{
		insights: map[string]Insight{"ins-1": {ID: "ins-1"}},
		gate:     gate,
		started:  started,
	}
	w := newTestWidget(t, fetcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.FetchInsight(context.Background(), "ins-1"); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	<-started
	close(gate)
	wg.Wait()

	if got := fetcher.Calls("ins-1"); got != 1 {
		t.Fatalf("expected concurrent calls coalesced into one, got %d", got)
	}
}

func TestFetchInsightRetriesAfterFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		insights: map[string]Insight{"ins-1": {ID: "ins-1"}},
		failures: 1,
	}
	w := newTestWidget(t, fetcher, nil)

	if _, err := w.FetchInsight(context.Background(), "ins-1"); err == nil {
		t.Fatalf("expected first fetch to fail")
	}
	ins, err := w.FetchInsight(context.Background(), "ins-1")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if ins.ID != "ins-1" {
		t.Fatalf("unexpected insight %#v", ins)
	}
	if fetcher.Calls("ins-1") != 2 {
		t.Fatalf("expected two network calls, got %d", fetcher.Calls("ins-1"))
	}
}

func TestFetchInsightRequiresID(t *testing.T) {
	w := newTestWidget(t, &fakeFetcher{}, nil)
	if _, err := w.FetchInsight(context.Background(), ""); !errors.Is(err, ErrMissingInsightID) {
		t.Fatalf("expected missing id error, got %v", err)
	}
}

func TestInvalidateInsightForcesRefetch(t *testing.T) {
	fetcher := &fakeFetcher{insights: map[string]Insight{"ins-1": {ID: "ins-1"}}}
	w := newTestWidget(t, fetcher, nil)

	_, _ = w.FetchInsight(context.Background(), "ins-1")
	w.InvalidateInsight("ins-1")
	_, _ = w.FetchInsight(context.Background(), "ins-1")

	if fetcher.Calls("ins-1") != 2 {
		t.Fatalf("expected refetch after invalidate, got %d", fetcher.Calls("ins-1"))
	}
}

func TestRenderInsightMissingContainer(t *testing.T) {
	doc := newFakeDoc()
	fetcher := &fakeFetcher{insights: map[string]Insight{"ins-1": {ID: "ins-1"}}}
	w := newTestWidget(t, fetcher, doc)

	err := w.RenderInsight(context.Background(), RenderOptions{InsightID: "ins-1", ContainerID: "nope"})
	if !errors.Is(err, ErrContainerNotFound) {
		t.Fatalf("expected container error, got %v", err)
	}
}

func TestRenderInsightWritesCard(t *testing.T) {
	doc := newFakeDoc()
	doc.addElement("slot")
	fetcher := &fakeFetcher{insights: map[string]Insight{
		"ins-1": {ID: "ins-1", ModelName: "Churn Forecast", PredictionOutput: mustOutput(`{"forecast": 42}`)},
	}}
	w := newTestWidget(t, fetcher, doc)

	err := w.RenderInsight(context.Background(), RenderOptions{InsightID: "ins-1", ContainerID: "slot"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	el := doc.elements["slot"]
	if !el.classes[ContainerClass] {
		t.Fatalf("expected container class added")
	}
	if !strings.Contains(el.html, "card:") {
		t.Fatalf("expected card markup, got %q", el.html)
	}
}

func TestRenderInsightErrorLandsInContainer(t *testing.T) {
	doc := newFakeDoc()
	doc.addElement("slot")
	fetcher := &fakeFetcher{failures: 99}
	w := newTestWidget(t, fetcher, doc)

	err := w.RenderInsight(context.Background(), RenderOptions{InsightID: "ins-1", ContainerID: "slot"})
	if err == nil {
		t.Fatalf("expected error returned")
	}
	if !strings.Contains(doc.elements["slot"].html, "error:") {
		t.Fatalf("expected error markup in container, got %q", doc.elements["slot"].html)
	}
}

func TestRenderHTMLVisibilityFlags(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("build renderer: %v", err)
	}
	fetcher := &fakeFetcher{insights: map[string]Insight{
		"ins-1": {ID: "ins-1", ModelName: "Churn Forecast", PredictionOutput: mustOutput(`{"forecast": 42, "confidence": 0.9}`)},
	}}
	w, err := New(Config{APIKey: "k", Fetcher: fetcher, Renderer: renderer})
	if err != nil {
		t.Fatalf("new widget: %v", err)
	}

	html, err := w.RenderHTML(context.Background(), RenderOptions{InsightID: "ins-1"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "epai-insight-title") || !strings.Contains(html, "epai-insight-confidence") {
		t.Fatalf("expected title and confidence by default, got %q", html)
	}

	hide := false
	html, err = w.RenderHTML(context.Background(), RenderOptions{InsightID: "ins-1", ShowTitle: &hide})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "epai-insight-title") {
		t.Fatalf("expected title suppressed entirely, got %q", html)
	}

	html, err = w.RenderHTML(context.Background(), RenderOptions{InsightID: "ins-1", Compact: true, ShowConfidence: &hide})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "epai-insight-confidence") {
		t.Fatalf("expected confidence suppressed in badge, got %q", html)
	}
	if !strings.Contains(html, "compact") {
		t.Fatalf("expected compact badge markup, got %q", html)
	}
}

func TestRenderHTMLThemeSelection(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("build renderer: %v", err)
	}
	fetcher := &fakeFetcher{insights: map[string]Insight{
		"ins-1": {ID: "ins-1", PredictionOutput: mustOutput(`{"forecast": 1}`)},
	}}
	w, err := New(Config{APIKey: "k", Fetcher: fetcher, Renderer: renderer, Theme: ThemeDark})
	if err != nil {
		t.Fatalf("new widget: %v", err)
	}

	html, err := w.RenderHTML(context.Background(), RenderOptions{InsightID: "ins-1"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, ThemeDark) {
		t.Fatalf("expected widget default theme, got %q", html)
	}

	html, err = w.RenderHTML(context.Background(), RenderOptions{InsightID: "ins-1", Theme: ThemeLight})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, ThemeLight) {
		t.Fatalf("expected per-render theme override, got %q", html)
	}
}

// --- Test helpers ---

func newTestWidget(t *testing.T, fetcher Fetcher, doc HostDocument) *Widget {
	t.Helper()
	w, err := New(Config{APIKey: "k", Fetcher: fetcher, Renderer: fakeRenderer{}, Document: doc})
	if err != nil {
		t.Fatalf("new widget: %v", err)
	}
	return w
}

func mustOutput(payload string) PredictionOutput {
	out, err := NewPredictionOutput([]byte(payload))
	if err != nil {
		panic(err)
	}
	return out
}

type fakeFetcher struct {
	mu       sync.Mutex
	insights map[string]Insight
	calls    map[string]int
	failures int
	gate     chan struct{}
	started  chan struct{}
}

func (f *fakeFetcher) FetchInsight(_ context.Context, insightID string) (Insight, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[insightID]++
	started := f.started
	f.started = nil
	gate := f.gate
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return Insight{}, errors.New("backend unavailable")
	}
	ins, ok := f.insights[insightID]
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if !ok {
		return Insight{}, fmt.Errorf("insight %s not found", insightID)
	}
	return ins, nil
}

func (f *fakeFetcher) Calls(insightID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[insightID]
}

type fakeRenderer struct{}

func (fakeRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	html := fmt.Sprintf("%s:%v", name, data)
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte(html))
	}
	return html, nil
}

type fakeDoc struct {
	elements   map[string]*fakeElement
	styles     map[string]string
	injections int
}

func newFakeDoc() *fakeDoc {
	return &fakeDoc{
		elements: map[string]*fakeElement{},
		styles:   map[string]string{},
	}
}

func (d *fakeDoc) addElement(id string) *fakeElement {
	el := &fakeElement{classes: map[string]bool{}}
	d.elements[id] = el
	return el
}

func (d *fakeDoc) ElementByID(id string) (Element, bool) {
	el, ok := d.elements[id]
	return el, ok
}

func (d *fakeDoc) HasStylesheet(id string) bool {
	_, ok := d.styles[id]
	return ok
}

func (d *fakeDoc) InjectStylesheet(id, css string) {
	d.styles[id] = css
	d.injections++
}

type fakeElement struct {
	classes map[string]bool
	html    string
}

func (e *fakeElement) AddClass(name string) { e.classes[name] = true }

func (e *fakeElement) SetHTML(html string) error {
	e.html = html
	return nil
}
