package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-insight/components/insight"
	"github.com/goliatone/go-insight/components/insight/commands"
)

// Snapshotter exposes the feed snapshot surface of the service.
type Snapshotter interface {
	Snapshot(ctx context.Context) (map[string]any, error)
}

// EmbedRenderer renders insight markup without touching a host document.
type EmbedRenderer interface {
	RenderHTML(ctx context.Context, opts insight.RenderOptions) (string, error)
}

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	Refresh    gocommand.Commander[commands.RefreshFeedInput]
	Invalidate gocommand.Commander[commands.InvalidateFeedInput]
	Service    Snapshotter
	Widget     EmbedRenderer
}

func (h *Handlers) HandleRefreshFeed(w http.ResponseWriter, r *http.Request) {
	var payload commands.RefreshFeedInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Refresh.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleInvalidateFeed(w http.ResponseWriter, r *http.Request) {
	var payload commands.InvalidateFeedInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Invalidate.Execute(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Service.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// HandleRenderEmbed renders a single insight card as HTML. Render options
// come from query parameters so pages can iframe or SSR the result.
func (h *Handlers) HandleRenderEmbed(w http.ResponseWriter, r *http.Request) {
	opts, err := embedOptionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	markup, err := h.Widget.RenderHTML(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(markup))
}

func embedOptionsFromQuery(r *http.Request) (insight.RenderOptions, error) {
	q := r.URL.Query()
	insightID := q.Get("insight_id")
	if insightID == "" {
		return insight.RenderOptions{}, insight.ErrMissingInsightID
	}
	showTitle := q.Get("show_title") != "false"
	showConfidence := q.Get("show_confidence") != "false"
	return insight.RenderOptions{
		InsightID:      insightID,
		Theme:          q.Get("theme"),
		ShowTitle:      &showTitle,
		ShowConfidence: &showConfidence,
		Compact:        q.Get("compact") == "true",
	}, nil
}
