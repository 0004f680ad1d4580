package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-insight/components/insight"
	"github.com/goliatone/go-insight/components/insight/commands"
	"github.com/goliatone/go-insight/components/insight/httpapi"
)

// EmbedRenderer renders insight markup for the embed endpoint.
type EmbedRenderer interface {
	RenderHTML(ctx context.Context, opts insight.RenderOptions) (string, error)
}

// Snapshotter exposes the service's feed snapshot.
type Snapshotter interface {
	Snapshot(ctx context.Context) (map[string]any, error)
}

// Config wires go-router with insight embeds, feed APIs, and refresh hooks.
type Config[T any] struct {
	Router    router.Router[T]
	Widget    EmbedRenderer
	Service   Snapshotter
	API       httpapi.Executor
	Broadcast *insight.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for insight endpoints.
type RouteConfig struct {
	Embed      string
	Feeds      string
	Refresh    string
	Invalidate string
	WebSocket  string
}

// Register mounts insight routes (embed HTML, feed JSON, REST, WebSocket) on
// a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Widget == nil {
		return errors.New("gorouter: widget is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/insights"
	}

	group := cfg.Router.Group(base)

	group.Get(routes.Embed, router.WrapHandler(func(ctx router.Context) error {
		opts, err := embedOptions(ctx)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		markup, err := cfg.Widget.RenderHTML(ctx.Context(), opts)
		if err != nil {
			return respondError(ctx, http.StatusBadGateway, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send([]byte(markup))
	}))

	if cfg.Service != nil {
		group.Get(routes.Feeds, router.WrapHandler(func(ctx router.Context) error {
			snapshot, err := cfg.Service.Snapshot(ctx.Context())
			if err != nil {
				return respondError(ctx, http.StatusInternalServerError, err)
			}
			return ctx.JSON(http.StatusOK, snapshot)
		}))
	}

	if cfg.API != nil {
		registerAPI(group, cfg.API, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.RefreshFeedInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.Refresh(ctx.Context(), payload); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}))

	r.Post(routes.Invalidate, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.InvalidateFeedInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.Invalidate(ctx.Context(), payload); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "invalidated"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *insight.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func embedOptions(ctx router.Context) (insight.RenderOptions, error) {
	insightID := ctx.Query("insight_id")
	if insightID == "" {
		return insight.RenderOptions{}, insight.ErrMissingInsightID
	}
	showTitle := ctx.Query("show_title") != "false"
	showConfidence := ctx.Query("show_confidence") != "false"
	return insight.RenderOptions{
		InsightID:      insightID,
		Theme:          ctx.Query("theme"),
		ShowTitle:      &showTitle,
		ShowConfidence: &showConfidence,
		Compact:        ctx.Query("compact") == "true",
	}, nil
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Embed == "" {
		routes.Embed = "/embed"
	}
	if routes.Feeds == "" {
		routes.Feeds = "/feeds"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/feeds/refresh"
	}
	if routes.Invalidate == "" {
		routes.Invalidate = "/feeds/invalidate"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
