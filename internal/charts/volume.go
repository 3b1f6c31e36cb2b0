package charts

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"medialens/internal/dataset"
	"medialens/internal/store"
)

const volumeBarGap = 4

// VolumeBars draws the selected topic's average daily coverage volume as
// grouped bars: one group per year, one bar per outlet in palette colors.
// Heights are absolute, so a quiet year stays visibly shorter than a loud
// one.
func (r *Renderer) VolumeBars(f store.Filters, topic string) ([]byte, error) {
	rows, err := r.st.YearlyVolumes(f, topic)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return blank(chartWidth, chartHeight)
	}

	byYear := make(map[int]map[string]float64)
	var years []int
	var maxVol float64
	for _, row := range rows {
		if byYear[row.Year] == nil {
			byYear[row.Year] = make(map[string]float64)
			years = append(years, row.Year)
		}
		byYear[row.Year][row.Outlet] = row.Mean
		if row.Mean > maxVol {
			maxVol = row.Mean
		}
	}
	sort.Ints(years)

	var groups [][]chart.Value
	for _, year := range years {
		vols := byYear[year]
		var group []chart.Value
		for _, outlet := range dataset.Outlets {
			v := vols[outlet]
			if v <= 0 {
				continue
			}
			col := hexColor(dataset.OutletColor(outlet))
			group = append(group, chart.Value{
				Value: v,
				Style: chart.Style{
					FillColor:   col,
					StrokeColor: col,
					StrokeWidth: 1,
				},
			})
		}
		if len(group) == 0 {
			continue
		}
		// The year labels its group from the middle bar.
		group[len(group)/2].Label = strconv.Itoa(year)
		groups = append(groups, group)
	}
	if len(groups) == 0 {
		return blank(chartWidth, chartHeight)
	}

	// An invisible zero bar separates the year groups.
	spacer := chart.Value{Style: chart.Style{
		FillColor:   chart.ColorTransparent,
		StrokeColor: chart.ColorTransparent,
	}}
	var bars []chart.Value
	for i, group := range groups {
		if i > 0 {
			bars = append(bars, spacer)
		}
		bars = append(bars, group...)
	}

	barWidth := (chartWidth-120)/len(bars) - volumeBarGap
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 4 {
		barWidth = 4
	}
	_, yMax := niceAxisBounds(0, maxVol)

	bc := chart.BarChart{
		Title:        fmt.Sprintf("Average daily %s volume by year", topic),
		Width:        chartWidth,
		Height:       chartHeight,
		BarWidth:     barWidth,
		BarSpacing:   volumeBarGap,
		UseBaseValue: true,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 44}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				return formatTick(f)
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return finishPNG(&buf, "Bar heights are absolute volume; colors follow the outlet palette.")
}
