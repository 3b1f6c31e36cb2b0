package analysis

import (
	"sort"
	"time"

	"medialens/internal/dataset"
)

// ToneRow is one outlet/topic/day tone observation.
type ToneRow struct {
	Day    time.Time
	Outlet string
	Topic  string
	Tone   float64
}

// Series is a named daily series, points ascending by day.
type Series struct {
	Name   string
	Points []Point
}

// OutletToneSeries builds one tone line per outlet. The rolling mean runs
// over each outlet/topic series first; the outlet line is the mean of the
// smoothed per-topic values on each day. Series come back in outlet display
// order.
func OutletToneSeries(rows []ToneRow, window int) []Series {
	type key struct{ outlet, topic string }
	grouped := make(map[key][]Point)
	for _, r := range rows {
		k := key{r.Outlet, r.Topic}
		grouped[k] = append(grouped[k], Point{Day: r.Day, Value: r.Tone})
	}

	type acc struct {
		sum float64
		n   int
	}
	perOutlet := make(map[string]map[time.Time]*acc)
	for k, pts := range grouped {
		sort.Slice(pts, func(i, j int) bool { return pts[i].Day.Before(pts[j].Day) })
		values := make([]float64, len(pts))
		for i, p := range pts {
			values[i] = p.Value
		}
		smoothed := RollingMean(values, window)

		days := perOutlet[k.outlet]
		if days == nil {
			days = make(map[time.Time]*acc)
			perOutlet[k.outlet] = days
		}
		for i, p := range pts {
			a := days[p.Day]
			if a == nil {
				a = &acc{}
				days[p.Day] = a
			}
			a.sum += smoothed[i]
			a.n++
		}
	}

	out := make([]Series, 0, len(perOutlet))
	for outlet, days := range perOutlet {
		pts := make([]Point, 0, len(days))
		for day, a := range days {
			pts = append(pts, Point{Day: day, Value: a.sum / float64(a.n)})
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].Day.Before(pts[j].Day) })
		out = append(out, Series{Name: outlet, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := dataset.OutletIndex(out[i].Name), dataset.OutletIndex(out[j].Name)
		if oi != oj {
			return oi < oj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ShareRow is one monthly mean topic share observation for a single outlet.
type ShareRow struct {
	Month time.Time
	Topic string
	Share float64
}

// ShareMatrix holds normalized monthly topic fractions for one outlet: on
// every month with coverage the fractions across topics sum to one.
type ShareMatrix struct {
	Months []time.Time
	Topics []string
	Frac   map[string][]float64 // topic -> one fraction per month
}

// BuildShareMatrix normalizes monthly share rows into a stacked-area-ready
// matrix. Topics come back in display order, months ascending; a topic
// absent in a month contributes a zero fraction.
func BuildShareMatrix(rows []ShareRow) ShareMatrix {
	monthSet := make(map[time.Time]bool)
	topicSet := make(map[string]bool)
	for _, r := range rows {
		monthSet[r.Month] = true
		topicSet[r.Topic] = true
	}

	months := make([]time.Time, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	topics := make([]string, 0, len(topicSet))
	for t := range topicSet {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		ti, tj := dataset.TopicIndex(topics[i]), dataset.TopicIndex(topics[j])
		if ti != tj {
			return ti < tj
		}
		return topics[i] < topics[j]
	})

	monthIdx := make(map[time.Time]int, len(months))
	for i, m := range months {
		monthIdx[m] = i
	}

	frac := make(map[string][]float64, len(topics))
	for _, t := range topics {
		frac[t] = make([]float64, len(months))
	}
	for _, r := range rows {
		frac[r.Topic][monthIdx[r.Month]] = r.Share
	}

	for i := range months {
		var total float64
		for _, t := range topics {
			total += frac[t][i]
		}
		if total == 0 {
			continue
		}
		for _, t := range topics {
			frac[t][i] /= total
		}
	}

	return ShareMatrix{Months: months, Topics: topics, Frac: frac}
}
