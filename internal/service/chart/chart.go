package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/akashabrah/StreetSense/internal/model"
)

// MinScale keeps the time series axis from collapsing on quiet sessions.
const MinScale = 5

// Tier colors shared by both charts and the demo page.
const (
	ColorTotal  = "#3b82f6"
	ColorHigh   = "#ef4444"
	ColorMedium = "#eab308"
	ColorLow    = "#22c55e"
)

// ScaleMax returns the y-axis maximum for a series.
func ScaleMax(points []model.TimeSeriesPoint) int {
	m := MinScale
	for _, p := range points {
		m = max(m, p.Peak())
	}
	return m
}

// GridLines returns the labels drawn at 0, 25, 50, 75 and 100 percent of scale.
func GridLines(scale int) []int {
	return []int{
		0,
		int(math.Round(float64(scale) * 0.25)),
		int(math.Round(float64(scale) * 0.5)),
		int(math.Round(float64(scale) * 0.75)),
		scale,
	}
}

// Bars holds the risk distribution bar heights in percent.
type Bars struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// BarHeights scales each tier to twice its share of the total, capped at 100.
func BarHeights(t model.SessionTotals) Bars {
	denom := float64(max(1, t.TotalPedestrians))
	height := func(n int) float64 {
		return math.Min(100, float64(n)/denom*200)
	}
	return Bars{
		High:   height(t.HighRisk),
		Medium: height(t.MediumRisk),
		Low:    height(t.LowRisk),
	}
}

// Options tweak the rendered page.
type Options struct {
	Width      string
	Height     string
	AssetsHost string
}

func (o Options) initialization(title string) opts.Initialization {
	init := opts.Initialization{
		PageTitle: title,
		Theme:     "dark",
		Width:     o.Width,
		Height:    o.Height,
	}
	if init.Width == "" {
		init.Width = "100%"
	}
	if init.Height == "" {
		init.Height = "256px"
	}
	if o.AssetsHost != "" {
		init.AssetsHost = o.AssetsHost
	}
	return init
}

// RenderTimeSeries writes an HTML line chart of the buffered ticks.
func RenderTimeSeries(w io.Writer, points []model.TimeSeriesPoint, o Options) error {
	scale := ScaleMax(points)

	line := charts.NewLine()
	title := opts.Title{Title: "Time Series"}
	if len(points) == 0 {
		title.Subtitle = "No data available"
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization("StreetSense - Time Series")),
		charts.WithTitleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "0", Bottom: "0"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: scale, SplitNumber: len(GridLines(scale)) - 1}),
	)

	labels := make([]string, 0, len(points))
	total := make([]opts.LineData, 0, len(points))
	high := make([]opts.LineData, 0, len(points))
	medium := make([]opts.LineData, 0, len(points))
	low := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Time)
		total = append(total, opts.LineData{Value: p.Total})
		high = append(high, opts.LineData{Value: p.High})
		medium = append(medium, opts.LineData{Value: p.Medium})
		low = append(low, opts.LineData{Value: p.Low})
	}

	line.SetXAxis(labels).
		AddSeries("Total", total, charts.WithLineStyleOpts(opts.LineStyle{Color: ColorTotal, Width: 2})).
		AddSeries("High", high, charts.WithLineStyleOpts(opts.LineStyle{Color: ColorHigh, Width: 2, Type: "dashed"})).
		AddSeries("Medium", medium, charts.WithLineStyleOpts(opts.LineStyle{Color: ColorMedium, Width: 2, Type: "dashed"})).
		AddSeries("Low", low, charts.WithLineStyleOpts(opts.LineStyle{Color: ColorLow, Width: 2, Type: "dashed"}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render time series: %w", err)
	}
	return nil
}

// RenderRiskDistribution writes an HTML bar chart of the latest tick.
func RenderRiskDistribution(w io.Writer, t model.SessionTotals, o Options) error {
	bars := BarHeights(t)

	bar := charts.NewBar()
	title := opts.Title{Title: "Risk Distribution"}
	if t.TotalPedestrians == 0 {
		title.Subtitle = "No data available"
	}
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization("StreetSense - Risk Distribution")),
		charts.WithTitleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "%"}),
	)

	data := []opts.BarData{
		{Name: "High", Value: bars.High, ItemStyle: &opts.ItemStyle{Color: ColorHigh}},
		{Name: "Medium", Value: bars.Medium, ItemStyle: &opts.ItemStyle{Color: ColorMedium}},
		{Name: "Low", Value: bars.Low, ItemStyle: &opts.ItemStyle{Color: ColorLow}},
	}
	bar.SetXAxis([]string{"High", "Medium", "Low"}).AddSeries("Risk", data)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render risk distribution: %w", err)
	}
	return nil
}
