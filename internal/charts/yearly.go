package charts

import (
	"math"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"medialens/internal/dataset"
	"medialens/internal/store"
)

// YearlyLines draws each outlet's yearly average tone, the long view
// of the story the daily chart tells.
func (r *Renderer) YearlyLines(f store.Filters) ([]byte, error) {
	rows, err := r.st.YearlyTones(f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return blank(chartWidth, chartHeight)
	}

	byOutlet := make(map[string]map[int]float64)
	yearSet := make(map[int]struct{})
	for _, row := range rows {
		if byOutlet[row.Outlet] == nil {
			byOutlet[row.Outlet] = make(map[int]float64)
		}
		byOutlet[row.Outlet][row.Year] = row.Mean
		yearSet[row.Year] = struct{}{}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	outlets := make([]string, 0, len(byOutlet))
	for o := range byOutlet {
		outlets = append(outlets, o)
	}
	sort.Slice(outlets, func(i, j int) bool {
		oi, oj := dataset.OutletIndex(outlets[i]), dataset.OutletIndex(outlets[j])
		if oi != oj {
			return oi < oj
		}
		return outlets[i] < outlets[j]
	})

	var minY, maxY float64
	var out []chart.Series
	for _, outlet := range outlets {
		means := byOutlet[outlet]
		xs := make([]float64, 0, len(means))
		ys := make([]float64, 0, len(means))
		for _, y := range years {
			v, ok := means[y]
			if !ok {
				continue
			}
			xs = append(xs, float64(y))
			ys = append(ys, v)
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		out = append(out, chart.ContinuousSeries{
			Name:    outlet,
			XValues: xs,
			YValues: ys,
			Style:   dotLineStyle(hexColor(dataset.OutletColor(outlet))),
		})
	}

	first, last := float64(years[0]), float64(years[len(years)-1])
	if len(years) == 1 {
		last = first + 1
	}
	ticks := make([]chart.Tick, 0, len(years)+1)
	for _, y := range years {
		ticks = append(ticks, chart.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}
	if len(years) == 1 {
		// second tick keeps the axis range non-degenerate
		ticks = append(ticks, chart.Tick{Value: last, Label: ""})
	}

	out = append(out, zeroLine(first, last))

	nMin, nMax := niceAxisBounds(minY, maxY)
	ch := chart.Chart{
		Title:      "Yearly average tone per outlet",
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 34}},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: first - 0.25, Max: last + 0.25},
		},
		YAxis: chart.YAxis{
			Name:  "tone",
			Range: &chart.ContinuousRange{Min: nMin, Max: nMax},
			Ticks: niceTicks(nMin, nMax, 6),
		},
		Series: out,
	}
	return renderPNG(&ch, "Each point is one outlet's full-year average tone.")
}

func zeroLine(from, to float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		XValues: []float64{from, to},
		YValues: []float64{0, 0},
		Style: chart.Style{
			StrokeWidth:     1.2,
			StrokeColor:     drawing.Color{R: 120, G: 124, B: 130, A: 255},
			StrokeDashArray: []float64{4, 4},
		},
	}
}
