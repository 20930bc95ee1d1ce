// Package dashboard renders the school chart page: status and accreditation
// composition as donuts, and schools per region as a bar chart with regions
// below the mean highlighted.
package dashboard

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/couchcryptid/school-report-service/internal/catalog"
	"github.com/couchcryptid/school-report-service/internal/domain"
)

const (
	pageTitle   = "Dashboard Sekolah"
	chartWidth  = "600px"
	chartHeight = "400px"
	barWidth    = "1000px"

	colorEnough = "#27ae60"
	colorShort  = "#e74c3c"
)

var (
	donutRadius = []string{"40%", "70%"}
	palette     = []string{"#ff9999", "#66b3ff", "#99ff99", "#ffcc99", "#c2c2f0"}
)

// Render writes the chart page for the given selection.
func Render(w io.Writer, summary catalog.Summary, schools []domain.School) error {
	page := components.NewPage()
	page.PageTitle = pageTitle
	page.SetLayout(components.PageFlexLayout)

	page.AddCharts(
		donut("Komposisi Status", "status", catalog.CountBy(schools, func(s domain.School) string { return s.Status })),
		donut("Kualitas Akreditasi", "akreditasi", catalog.CountBy(schools, func(s domain.School) string { return s.Accreditation })),
		regionBar(summary),
	)
	return page.Render(w)
}

func donut(title, series string, counts map[string]int) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	pie.AddSeries(series, pieData(counts)).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{d}%"}),
			charts.WithPieChartOpts(opts.PieChart{Radius: donutRadius}),
		)
	return pie
}

// pieData orders slices by count descending, then label, so colours are
// assigned the same way on every render.
func pieData(counts map[string]int) []opts.PieData {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	data := make([]opts.PieData, len(keys))
	for i, k := range keys {
		data[i] = opts.PieData{
			Name:      k,
			Value:     counts[k],
			ItemStyle: &opts.ItemStyle{Color: palette[i%len(palette)]},
		}
	}
	return data
}

func regionBar(summary catalog.Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: barWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Rekomendasi Pembangunan",
			Subtitle: fmt.Sprintf("Rata-rata wilayah %.1f", summary.RegionMean),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	names := make([]string, len(summary.Regions))
	data := make([]opts.BarData, len(summary.Regions))
	for i, r := range summary.Regions {
		names[i] = r.Region
		color := colorEnough
		if r.BelowAverage {
			color = colorShort
		}
		data[i] = opts.BarData{
			Name:      r.Region,
			Value:     r.Count,
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}

	bar.SetXAxis(names).AddSeries("Jumlah", data)
	return bar
}
