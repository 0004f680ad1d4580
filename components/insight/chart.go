package insight

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultTrendHeight = "160px"

// Output fields probed for a renderable series, in preference order.
var trendSeriesKeys = []string{"forecast_series", "history", "trend"}

var sharedTrendCache = NewTTLRenderCache(5 * time.Minute)

// ChartRenderer turns an insight's numeric series, when it has one, into an
// inline chart fragment for the full card layout.
type ChartRenderer interface {
	RenderTrend(ins Insight, palette Palette) (string, error)
}

// EChartsTrend renders server-side sparkline markup via go-echarts.
type EChartsTrend struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// EChartsTrendOption customizes trend rendering.
type EChartsTrendOption func(*EChartsTrend)

// WithTrendCache injects a render cache.
func WithTrendCache(cache RenderCache) EChartsTrendOption {
	return func(t *EChartsTrend) { t.cache = cache }
}

// WithTrendTheme sets the echarts theme (defaults to Westeros).
func WithTrendTheme(theme string) EChartsTrendOption {
	return func(t *EChartsTrend) { t.theme = theme }
}

// WithTrendAssetsHost rewrites the assets host so the ECharts JS loads from
// a CDN.
func WithTrendAssetsHost(host string) EChartsTrendOption {
	return func(t *EChartsTrend) { t.assetsHost = host }
}

// NewEChartsTrend builds the default trend renderer.
func NewEChartsTrend(options ...EChartsTrendOption) *EChartsTrend {
	t := &EChartsTrend{
		cache: sharedTrendCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// RenderTrend renders a line chart when the prediction output carries a
// numeric series under a known key. Insights without a series render to the
// empty string, which the card template omits.
func (t *EChartsTrend) RenderTrend(ins Insight, palette Palette) (string, error) {
	series := trendSeries(ins.PredictionOutput)
	if len(series) < 2 {
		return "", nil
	}
	renderFn := func() (string, error) {
		return t.render(ins, series)
	}
	if t.cache != nil {
		key := fmt.Sprintf("%s:%s:%s", ins.ID, palette.Name, renderHash(map[string]any{"series": series}))
		return t.cache.GetOrRender(key, renderFn)
	}
	return renderFn()
}

func (t *EChartsTrend) render(ins Insight, series []float64) (string, error) {
	line := charts.NewLine()
	initOpts := opts.Initialization{
		Theme:  t.theme,
		Width:  "100%",
		Height: defaultTrendHeight,
	}
	if t.assetsHost != "" {
		initOpts.AssetsHost = t.assetsHost
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	labels := make([]string, len(series))
	points := make([]opts.LineData, len(series))
	for i, value := range series {
		labels[i] = strconv.Itoa(i + 1)
		points[i] = opts.LineData{Value: value}
	}
	line.SetXAxis(labels)
	line.AddSeries(ins.ModelName, points)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return renderChart(line)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func trendSeries(output PredictionOutput) []float64 {
	for _, key := range trendSeriesKeys {
		v, ok := output.Field(key)
		if !ok {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		series := make([]float64, 0, len(list))
		for _, item := range list {
			f, ok := toFloat(item)
			if !ok {
				series = nil
				break
			}
			series = append(series, f)
		}
		if len(series) > 0 {
			return series
		}
	}
	return nil
}
