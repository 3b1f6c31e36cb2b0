package store

import (
	"fmt"
	"sort"
	"time"

	"medialens/internal/analysis"
	"medialens/internal/dataset"
)

// Summary returns the headline numbers for the current selection.
func (s *Store) Summary(f Filters) (*Summary, error) {
	query, args := f.apply(`SELECT COUNT(DISTINCT outlet), COUNT(DISTINCT topic), COUNT(DISTINCT year),
		COUNT(tone) + COUNT(volume), COALESCE(MIN(day), ''), COALESCE(MAX(day), '')
		FROM measurements WHERE 1=1`, nil)

	var sum Summary
	err := s.conn.QueryRow(query, args...).Scan(
		&sum.Outlets, &sum.Topics, &sum.Years, &sum.Measurements, &sum.FirstDay, &sum.LastDay)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	return &sum, nil
}

// Domain returns the distinct outlets, topics, and year span present in the
// store, regardless of filters.
func (s *Store) Domain() (*Domain, error) {
	d := &Domain{}

	rows, err := s.conn.Query("SELECT DISTINCT outlet FROM measurements")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		d.Outlets = append(d.Outlets, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trows, err := s.conn.Query("SELECT DISTINCT topic FROM measurements")
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var t string
		if err := trows.Scan(&t); err != nil {
			return nil, err
		}
		d.Topics = append(d.Topics, t)
	}
	if err := trows.Err(); err != nil {
		return nil, err
	}

	err = s.conn.QueryRow("SELECT COALESCE(MIN(year), 0), COALESCE(MAX(year), 0) FROM measurements").
		Scan(&d.YearMin, &d.YearMax)
	if err != nil {
		return nil, err
	}

	sort.Slice(d.Outlets, func(i, j int) bool {
		oi, oj := dataset.OutletIndex(d.Outlets[i]), dataset.OutletIndex(d.Outlets[j])
		if oi != oj {
			return oi < oj
		}
		return d.Outlets[i] < d.Outlets[j]
	})
	sort.Slice(d.Topics, func(i, j int) bool {
		ti, tj := dataset.TopicIndex(d.Topics[i]), dataset.TopicIndex(d.Topics[j])
		if ti != tj {
			return ti < tj
		}
		return d.Topics[i] < d.Topics[j]
	})
	return d, nil
}

// HeatmapCells aggregates tone per topic and year: mean, sample deviation,
// observation count, year-over-year change, and the outlets at both tone
// extremes. Cells come back in topic display order, years ascending.
func (s *Store) HeatmapCells(f Filters) ([]HeatmapCell, error) {
	type cellKey struct {
		topic string
		year  int
	}

	query, args := f.apply(`SELECT topic, year, SUM(tone), SUM(tone*tone), COUNT(tone)
		FROM measurements WHERE tone IS NOT NULL`, nil)
	query += " GROUP BY topic, year"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying heatmap cells: %w", err)
	}
	defer rows.Close()

	cells := make(map[cellKey]*HeatmapCell)
	for rows.Next() {
		var topic string
		var year, n int
		var sum, sumSq float64
		if err := rows.Scan(&topic, &year, &sum, &sumSq, &n); err != nil {
			return nil, err
		}
		mean, std := analysis.MeanStd(sum, sumSq, n)
		cells[cellKey{topic, year}] = &HeatmapCell{
			Topic:    topic,
			Year:     year,
			MeanTone: mean,
			StdDev:   std,
			Count:    n,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query, args = f.apply(`SELECT topic, year, outlet, AVG(tone)
		FROM measurements WHERE tone IS NOT NULL`, nil)
	query += " GROUP BY topic, year, outlet"

	orows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cell extremes: %w", err)
	}
	defer orows.Close()

	minVal := make(map[cellKey]float64)
	maxVal := make(map[cellKey]float64)
	for orows.Next() {
		var topic, outlet string
		var year int
		var mean float64
		if err := orows.Scan(&topic, &year, &outlet, &mean); err != nil {
			return nil, err
		}
		k := cellKey{topic, year}
		c := cells[k]
		if c == nil {
			continue
		}
		if c.MostNegativeOutlet == "" || mean < minVal[k] {
			c.MostNegativeOutlet = outlet
			minVal[k] = mean
		}
		if c.MostPositiveOutlet == "" || mean > maxVal[k] {
			c.MostPositiveOutlet = outlet
			maxVal[k] = mean
		}
	}
	if err := orows.Err(); err != nil {
		return nil, err
	}

	// Year-over-year change compares each cell against the topic's
	// previous year with data; a topic's first year reads zero.
	byTopic := make(map[string][]*HeatmapCell)
	for _, c := range cells {
		byTopic[c.Topic] = append(byTopic[c.Topic], c)
	}
	for _, list := range byTopic {
		sort.Slice(list, func(i, j int) bool { return list[i].Year < list[j].Year })
		for i := 1; i < len(list); i++ {
			list[i].YoYChange = list[i].MeanTone - list[i-1].MeanTone
		}
	}

	out := make([]HeatmapCell, 0, len(cells))
	for _, c := range cells {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := dataset.TopicIndex(out[i].Topic), dataset.TopicIndex(out[j].Topic)
		if ti != tj {
			return ti < tj
		}
		if out[i].Topic != out[j].Topic {
			return out[i].Topic < out[j].Topic
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

// DailyTones returns the per-outlet, per-topic daily tone rows feeding the
// smoothed time series charts.
func (s *Store) DailyTones(f Filters) ([]analysis.ToneRow, error) {
	query, args := f.apply(`SELECT day, outlet, topic, tone
		FROM measurements WHERE tone IS NOT NULL`, nil)
	query += " ORDER BY outlet, topic, day"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily tones: %w", err)
	}
	defer rows.Close()

	var out []analysis.ToneRow
	for rows.Next() {
		var dayStr string
		var r analysis.ToneRow
		if err := rows.Scan(&dayStr, &r.Outlet, &r.Topic, &r.Tone); err != nil {
			return nil, err
		}
		day, err := time.Parse(dataset.DayLayout, dayStr)
		if err != nil {
			return nil, fmt.Errorf("parsing stored day %q: %w", dayStr, err)
		}
		r.Day = day
		out = append(out, r)
	}
	return out, rows.Err()
}

// OutletMeans returns the average tone per outlet inside one heatmap cell,
// most negative first. The outlet subset of f still applies.
func (s *Store) OutletMeans(f Filters, topic string, year int) ([]OutletMean, error) {
	query := `SELECT outlet, AVG(tone), COUNT(tone)
		FROM measurements WHERE tone IS NOT NULL AND topic = ? AND year = ?`
	args := []any{topic, year}
	if len(f.Outlets) > 0 {
		query += " AND outlet IN (" + placeholders(len(f.Outlets)) + ")"
		for _, o := range f.Outlets {
			args = append(args, o)
		}
	}
	query += " GROUP BY outlet ORDER BY AVG(tone)"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outlet means: %w", err)
	}
	defer rows.Close()

	var out []OutletMean
	for rows.Next() {
		var m OutletMean
		if err := rows.Scan(&m.Outlet, &m.MeanTone, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// YearlyTones returns the average tone per year and outlet.
func (s *Store) YearlyTones(f Filters) ([]YearlyMean, error) {
	query, args := f.apply(`SELECT year, outlet, AVG(tone)
		FROM measurements WHERE tone IS NOT NULL`, nil)
	query += " GROUP BY year, outlet ORDER BY year, outlet"
	return s.yearlyMeans(query, args)
}

// YearlyVolumes returns the average daily article volume per year and outlet
// for one topic.
func (s *Store) YearlyVolumes(f Filters, topic string) ([]YearlyMean, error) {
	scoped := f
	scoped.Topics = nil
	query, args := scoped.apply(`SELECT year, outlet, AVG(volume)
		FROM measurements WHERE volume IS NOT NULL AND topic = ?`, []any{topic})
	query += " GROUP BY year, outlet ORDER BY year, outlet"
	return s.yearlyMeans(query, args)
}

func (s *Store) yearlyMeans(query string, args []any) ([]YearlyMean, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying yearly means: %w", err)
	}
	defer rows.Close()

	var out []YearlyMean
	for rows.Next() {
		var m YearlyMean
		if err := rows.Scan(&m.Year, &m.Outlet, &m.Mean); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// OutletCoverage breaks the stored data down per outlet.
func (s *Store) OutletCoverage() ([]Coverage, error) {
	return s.coverage("outlet", dataset.OutletIndex)
}

// TopicCoverage breaks the stored data down per topic.
func (s *Store) TopicCoverage() ([]Coverage, error) {
	return s.coverage("topic", dataset.TopicIndex)
}

func (s *Store) coverage(column string, rank func(string) int) ([]Coverage, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(DISTINCT day), COUNT(tone) + COUNT(volume),
		COALESCE(AVG(tone), 0) FROM measurements GROUP BY %s`, column, column)

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying %s coverage: %w", column, err)
	}
	defer rows.Close()

	var out []Coverage
	for rows.Next() {
		var c Coverage
		if err := rows.Scan(&c.Name, &c.Days, &c.Values, &c.MeanTone); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank(out[i].Name), rank(out[j].Name)
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
