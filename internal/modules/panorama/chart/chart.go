// Package chart renders aggregated points as an SVG line chart.
package chart

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sensorpanorama/internal/modules/panorama/types"
)

var ErrNotEnoughPoints = errors.New("at least two points are required to draw a chart")

const (
	defaultWidth  = 1100
	defaultHeight = 420
)

// Options controls one render.
type Options struct {
	Title   string
	Metrics []types.Metric
	Ranges  map[types.MetricKey]types.AxisRange
	Width   int
	Height  int
}

// SecondaryAxisMetric picks the metric drawn against the right axis:
// pressure if visible, else humidity, else temperature.
func SecondaryAxisMetric(metrics []types.Metric) types.MetricKey {
	has := func(k types.MetricKey) bool {
		for _, m := range metrics {
			if m.Key == k {
				return true
			}
		}
		return false
	}
	switch {
	case has(types.MetricPressure):
		return types.MetricPressure
	case has(types.MetricHumidity):
		return types.MetricHumidity
	default:
		return types.MetricTemperature
	}
}

// Build assembles the go-chart definition without rendering it.
func Build(points []types.AggregatedPoint, opts Options) (gochart.Chart, error) {
	if len(points) < 2 {
		return gochart.Chart{}, ErrNotEnoughPoints
	}
	if len(opts.Metrics) == 0 {
		return gochart.Chart{}, errors.New("no metrics selected")
	}

	xs := make([]time.Time, len(points))
	for i, p := range points {
		xs[i] = p.Timestamp
	}
	// Points are sorted, so equal ends mean a zero-width x range.
	if xs[0].Equal(xs[len(xs)-1]) {
		return gochart.Chart{}, ErrNotEnoughPoints
	}

	right := SecondaryAxisMetric(opts.Metrics)
	primary := &gochart.ContinuousRange{Min: math.Inf(1), Max: math.Inf(-1)}
	var primaryNames string
	ch := gochart.Chart{
		Title:  opts.Title,
		Width:  orDefault(opts.Width, defaultWidth),
		Height: orDefault(opts.Height, defaultHeight),
		Background: gochart.Style{
			Padding: gochart.Box{Top: 34, Left: 45, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat("02.01 15:04"),
		},
	}

	for _, m := range opts.Metrics {
		ys := make([]float64, len(points))
		for i, p := range points {
			ys[i] = p.Value(m.Key)
		}
		r, ok := opts.Ranges[m.Key]
		if !ok {
			r = types.AxisRange{Min: m.DefaultMin, Max: m.DefaultMax}
		}
		color := drawing.ColorFromHex(m.Color[1:])
		series := gochart.TimeSeries{
			Name:    m.Label,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: color,
				StrokeWidth: 2.4,
			},
		}
		if len(points) < 80 {
			series.Style.DotColor = color
			series.Style.DotWidth = 3
		}
		if m.Key == right && len(opts.Metrics) > 1 {
			series.YAxis = gochart.YAxisSecondary
			ch.YAxisSecondary = gochart.YAxis{
				Name:  m.Unit,
				Range: &gochart.ContinuousRange{Min: r.Min, Max: r.Max},
			}
		} else {
			primary.Min = math.Min(primary.Min, r.Min)
			primary.Max = math.Max(primary.Max, r.Max)
			if primaryNames != "" {
				primaryNames += " / "
			}
			primaryNames += m.Unit
		}
		ch.Series = append(ch.Series, series)
	}
	ch.YAxis = gochart.YAxis{Name: primaryNames, Range: primary}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch, nil
}

// RenderSVG writes the chart as SVG. With fewer than two points it writes a
// placeholder and returns ErrNotEnoughPoints so callers can log it.
func RenderSVG(w io.Writer, points []types.AggregatedPoint, opts Options) error {
	ch, err := Build(points, opts)
	if err != nil {
		if errors.Is(err, ErrNotEnoughPoints) {
			if perr := writePlaceholder(w, opts, "Keine Daten"); perr != nil {
				return perr
			}
		}
		return err
	}
	if err := ch.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func writePlaceholder(w io.Writer, opts Options, text string) error {
	width := orDefault(opts.Width, defaultWidth)
	height := orDefault(opts.Height, defaultHeight)
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="50%%" y="50%%" text-anchor="middle" fill="#45534d">%s</text></svg>`,
		width, height, html.EscapeString(text))
	return err
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
