package charts

import (
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

// niceAxisBounds pads [lo,hi] by a small margin and rounds outward to
// the span's order of magnitude so axis labels land on round numbers.
func niceAxisBounds(lo, hi float64) (float64, float64) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return lo, hi
	}
	if hi <= lo {
		hi = lo + 1
	}
	span := hi - lo
	pad := span * 0.05
	a := lo - pad
	b := hi + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if mag > 0 && !math.IsInf(mag, 0) {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	return a, b
}

// niceTicks generates around want tick marks between lo and hi using
// steps of 1, 2, 2.5 or 5 times a power of ten.
func niceTicks(lo, hi float64, want int) []chart.Tick {
	if want < 2 || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil
	}
	if hi <= lo {
		hi = lo + 1
	}

	mag := math.Pow(10, math.Floor(math.Log10((hi-lo)/float64(want-1))))
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Ceil((hi - lo) / step)
		if count < 2 {
			count = 2
		}
		if score := math.Abs(count - float64(want)); score < bestScore {
			bestScore = score
			bestStep = step
		}
	}

	var ticks []chart.Tick
	start := math.Floor(lo/bestStep) * bestStep
	end := math.Ceil(hi/bestStep) * bestStep
	for v := start; v <= end+bestStep/2; v += bestStep {
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
		if len(ticks) > want+2 {
			break
		}
	}
	return ticks
}

func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	switch av := math.Abs(v); {
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// timeTicks builds x-axis ticks across [from,to], labeled by a layout
// suited to the span: years for multi-year charts, months below that,
// days for short windows.
func timeTicks(from, to time.Time) []chart.Tick {
	if to.Before(from) {
		from, to = to, from
	}

	var ticks []chart.Tick
	add := func(t time.Time, layout string) {
		ticks = append(ticks, chart.Tick{Value: float64(chart.TimeToFloat64(t)), Label: t.Format(layout)})
	}

	switch span := to.Sub(from); {
	case span > 540*24*time.Hour:
		for y := from.Year(); y <= to.Year()+1; y++ {
			add(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), "2006")
		}
	case span > 90*24*time.Hour:
		t := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
		stop := to.AddDate(0, 1, 0)
		for !t.After(stop) {
			add(t, "Jan 2006")
			t = t.AddDate(0, 2, 0)
		}
	default:
		step := span / 6
		if step < 24*time.Hour {
			step = 24 * time.Hour
		}
		for t := from; !t.After(to.Add(step)); t = t.Add(step) {
			add(t, "Jan 2")
		}
	}
	return ticks
}

// timeAxis wraps timeTicks in an axis whose range spans the ticks, so
// every label stays on canvas.
func timeAxis(from, to time.Time) chart.XAxis {
	ticks := timeTicks(from, to)
	if len(ticks) < 2 {
		return chart.XAxis{}
	}
	return chart.XAxis{
		Ticks: ticks,
		Range: &chart.ContinuousRange{
			Min: ticks[0].Value,
			Max: ticks[len(ticks)-1].Value,
		},
	}
}
