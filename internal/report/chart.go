package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/deck-budget/internal/budget"
	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

// ChartConfig holds configuration for the HTML chart report.
type ChartConfig struct {
	Title    string   // Page and chart title
	Width    string   // Chart width (e.g., "900px")
	Height   string   // Chart height (e.g., "500px")
	Theme    string   // Chart theme
	TopCards int      // Number of most expensive cards in the bar chart
	Colors   []string // Custom colors
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:    "Deck budget",
		Width:    "900px",
		Height:   "500px",
		Theme:    "light",
		TopCards: 15,
		Colors:   []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// WriteChart renders an interactive HTML page with the section totals and
// the most expensive cards of result.
func WriteChart(w io.Writer, result *budget.Result, config ChartConfig) error {
	page := components.NewPage()
	page.PageTitle = config.Title
	page.AddCharts(
		sectionPie(result, config),
		topCardsBar(result, config),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func sectionPie(result *budget.Result, config ChartConfig) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: "Total " + FormatPrice(result.Report.Summary.GrandTotal, result.Currency),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	)

	data := make([]opts.PieData, 0, len(decklist.Order))
	for _, section := range decklist.Order {
		data = append(data, opts.PieData{
			Name:  string(section),
			Value: result.Report.Totals[section].Round(2).InexactFloat64(),
		})
	}

	pie.AddSeries("Sections", data).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"40%", "70%"},
			}),
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c}",
			}),
		)
	return pie
}

func topCardsBar(result *budget.Result, config ChartConfig) *charts.Bar {
	items := TopItems(result.Report, config.TopCards)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Top %d cards", len(items)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: 30},
		}),
		charts.WithColorsOpts(opts.Colors{config.Colors[0]}),
	)

	labels := make([]string, len(items))
	values := make([]opts.BarData, len(items))
	for i, item := range items {
		labels[i] = item.Name
		values[i] = opts.BarData{Value: item.Subtotal.Round(2).InexactFloat64()}
	}

	bar.SetXAxis(labels).AddSeries("Subtotal", values)
	return bar
}

// TopItems returns the n priced items with the highest subtotal, most
// expensive first. Ties keep input order.
func TopItems(report *pricing.Report, n int) []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(report.Items))
	for _, item := range report.Items {
		if item.Found {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Subtotal.GreaterThan(items[j].Subtotal)
	})
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}
