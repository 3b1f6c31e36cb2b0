package charts

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"medialens/internal/analysis"
	"medialens/internal/dataset"
	"medialens/internal/store"
)

// ShareArea draws a normalized stacked area of one outlet's monthly
// topic mix. Bands are cumulative fills painted from the top of the
// stack down, which leaves each topic's slice in its own color.
func (r *Renderer) ShareArea(f store.Filters, outlet string) ([]byte, error) {
	rows, err := r.st.MonthlyShares(f, outlet)
	if err != nil {
		return nil, err
	}
	mat := analysis.BuildShareMatrix(rows)
	if len(mat.Months) == 0 {
		return blank(chartWidth, chartHeight)
	}

	type band struct {
		topic string
		ys    []float64
	}
	cum := make([]float64, len(mat.Months))
	bands := make([]band, 0, len(mat.Topics))
	for _, topic := range mat.Topics {
		ys := make([]float64, len(mat.Months))
		for i, frac := range mat.Frac[topic] {
			cum[i] += frac
			ys[i] = cum[i]
		}
		bands = append(bands, band{topic: topic, ys: ys})
	}

	var out []chart.Series
	for i := len(bands) - 1; i >= 0; i-- {
		b := bands[i]
		col := hexColor(dataset.TopicColor(b.topic))
		times, ys := padSinglePoint(mat.Months, b.ys)
		out = append(out, chart.TimeSeries{
			Name:    b.topic,
			XValues: times,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: 1.0,
				StrokeColor: col,
				FillColor:   col.WithAlpha(224),
			},
		})
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("What %s covers, month by month", outlet),
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 34}},
		XAxis:      timeAxis(mat.Months[0], mat.Months[len(mat.Months)-1]),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
			Ticks: []chart.Tick{
				{Value: 0, Label: "0%"},
				{Value: 0.25, Label: "25%"},
				{Value: 0.5, Label: "50%"},
				{Value: 0.75, Label: "75%"},
				{Value: 1, Label: "100%"},
			},
		},
		Series: out,
	}
	return renderPNG(&ch, "Each band is the topic's share of the outlet's monthly coverage.")
}
