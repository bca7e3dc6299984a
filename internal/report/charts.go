package report

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "900px"
	chartHeight = "500px"
	chartTheme  = "light"
)

// palette follows the default echarts ordering so rarity colors stay
// consistent across the pie and bar charts.
var palette = []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"}

// rarityPie charts the card count per rarity tier. The report summary
// rides along as the chart subtitle.
func rarityPie(stats Stats, title, subtitle string) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
			Theme:  chartTheme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithColorsOpts(opts.Colors(palette)),
	)

	data := make([]opts.PieData, len(stats.ByRarity))
	for i, bucket := range stats.ByRarity {
		data[i] = opts.PieData{Name: bucket.Rarity, Value: bucket.Cards}
	}

	pie.AddSeries("Rarity", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"35%", "70%"},
			}),
		)

	return pie
}

// quantityBar charts total copies held per rarity tier.
func quantityBar(stats Stats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
			Theme:  chartTheme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Copies by rarity",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithColorsOpts(opts.Colors{palette[1]}),
	)

	xLabels := make([]string, len(stats.ByRarity))
	yData := make([]opts.BarData, len(stats.ByRarity))
	for i, bucket := range stats.ByRarity {
		xLabels[i] = bucket.Rarity
		yData[i] = opts.BarData{Value: bucket.Quantity}
	}

	bar.SetXAxis(xLabels).
		AddSeries("Copies", yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	return bar
}

// valueLine charts cumulative collection value over the stock dates.
func valueLine(stats Stats) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
			Theme:  chartTheme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Collection value over time",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithColorsOpts(opts.Colors{palette[0]}),
	)

	xLabels := make([]string, len(stats.ByDate))
	yData := make([]opts.LineData, len(stats.ByDate))
	for i, point := range stats.ByDate {
		xLabels[i] = point.Date
		yData[i] = opts.LineData{Value: point.Cumulative}
	}

	line.SetXAxis(xLabels).
		AddSeries("Points", yData).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(true),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	return line
}
