package charts

import (
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"medialens/internal/analysis"
	"medialens/internal/dataset"
	"medialens/internal/store"
)

// ToneLines draws the smoothed daily tone of every selected outlet,
// averaged across the selected topics.
func (r *Renderer) ToneLines(f store.Filters, window int) ([]byte, error) {
	rows, err := r.st.DailyTones(f)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Average tone across topics, %d-day rolling mean", window)
	return r.toneChart(rows, window, title,
		"Lines above the dashed guide read favorable, below it critical.")
}

// DiveTone draws the smoothed tone of a single topic per outlet.
func (r *Renderer) DiveTone(f store.Filters, topic string, window int) ([]byte, error) {
	scoped := f
	scoped.Topics = []string{topic}
	rows, err := r.st.DailyTones(scoped)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Tone of %s coverage, %d-day rolling mean", topic, window)
	return r.toneChart(rows, window, title, "")
}

func (r *Renderer) toneChart(rows []analysis.ToneRow, window int, title, caption string) ([]byte, error) {
	series := analysis.OutletToneSeries(rows, window)
	if len(series) == 0 {
		return blank(chartWidth, chartHeight)
	}

	// Bounds start at zero so the guide line always stays in frame.
	var minY, maxY float64
	var minX, maxX time.Time
	var out []chart.Series
	for _, s := range series {
		times := make([]time.Time, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			times[i] = p.Day
			ys[i] = p.Value
			minY = math.Min(minY, p.Value)
			maxY = math.Max(maxY, p.Value)
			if minX.IsZero() || p.Day.Before(minX) {
				minX = p.Day
			}
			if p.Day.After(maxX) {
				maxX = p.Day
			}
		}
		times, ys = padSinglePoint(times, ys)
		out = append(out, chart.TimeSeries{
			Name:    s.Name,
			XValues: times,
			YValues: ys,
			Style:   lineStyle(hexColor(dataset.OutletColor(s.Name))),
		})
	}
	out = append(out, zeroRule(minX, maxX))

	nMin, nMax := niceAxisBounds(minY, maxY)
	ch := chart.Chart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 34}},
		XAxis:      timeAxis(minX, maxX),
		YAxis: chart.YAxis{
			Name:  "tone",
			Range: &chart.ContinuousRange{Min: nMin, Max: nMax},
			Ticks: niceTicks(nMin, nMax, 6),
		},
		Series: out,
	}
	return renderPNG(&ch, caption)
}
