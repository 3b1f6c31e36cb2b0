package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownMetric marks a long-file row whose metric column is neither
// "tone" nor "volume".
var ErrUnknownMetric = errors.New("unknown metric")

// CleanStats counts what the cleaning rules did to the long file.
type CleanStats struct {
	RowsRead           int
	Kept               int
	DroppedPartialYear int
	DroppedBlackout    int
	DroppedZeroVolume  int // (day, outlet, topic) pairs dropped
	ClippedTones       int
}

// ShareStats counts what the cleaning rules did to the share file.
type ShareStats struct {
	RowsRead           int
	Kept               int
	DroppedPartialYear int
	DroppedBlackout    int
	DroppedZeroVolume  int
	DroppedNoShare     int
}

type rowKey struct {
	day    string
	outlet string
	topic  string
}

// ReadMeasurements decodes the long-form tone/volume CSV, applies the
// cleaning rules, and pivots the two metrics onto one row per outlet, topic,
// and day. Results come back ordered by day, outlet, topic.
func ReadMeasurements(r io.Reader) ([]Measurement, CleanStats, error) {
	var stats CleanStats

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("reading header: %w", err)
	}
	idx, err := columnIndex(header, "date", "year", "outlet", "topic", "metric", "value")
	if err != nil {
		return nil, stats, err
	}

	rows := make(map[rowKey]*Measurement)
	zeroVolume := make(map[rowKey]bool)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("reading row: %w", err)
		}
		line++
		stats.RowsRead++

		day, year, err := parseDayYear(rec[idx["date"]], rec[idx["year"]], line)
		if err != nil {
			return nil, stats, err
		}
		value, err := strconv.ParseFloat(rec[idx["value"]], 64)
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: parsing value %q: %w", line, rec[idx["value"]], err)
		}

		if year == partialYear {
			stats.DroppedPartialYear++
			continue
		}
		dayKey := day.Format(DayLayout)
		if dayKey == blackoutDay {
			stats.DroppedBlackout++
			continue
		}

		k := rowKey{day: dayKey, outlet: rec[idx["outlet"]], topic: rec[idx["topic"]]}
		m := rows[k]
		if m == nil {
			m = &Measurement{Day: day, Year: year, Outlet: k.outlet, Topic: k.topic}
			rows[k] = m
		}

		switch rec[idx["metric"]] {
		case "tone":
			if value > ToneMax {
				value = ToneMax
				stats.ClippedTones++
			} else if value < ToneMin {
				value = ToneMin
				stats.ClippedTones++
			}
			v := value
			m.Tone = &v
		case "volume":
			if value == 0 {
				zeroVolume[k] = true
				continue
			}
			v := value
			m.Volume = &v
		default:
			return nil, stats, fmt.Errorf("line %d: %w %q", line, ErrUnknownMetric, rec[idx["metric"]])
		}
	}

	// A zero-volume day carries no signal: drop the pair, tone included.
	out := make([]Measurement, 0, len(rows))
	for k, m := range rows {
		if zeroVolume[k] {
			stats.DroppedZeroVolume++
			continue
		}
		out = append(out, *m)
	}
	sortMeasurements(out)
	stats.Kept = len(out)
	return out, stats, nil
}

// ReadShares decodes the topic share CSV and applies the cleaning rules.
// Results come back ordered by day, outlet, topic.
func ReadShares(r io.Reader) ([]Share, ShareStats, error) {
	var stats ShareStats

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("reading header: %w", err)
	}
	idx, err := columnIndex(header, "date", "year", "outlet", "topic", "value", "topic_share")
	if err != nil {
		return nil, stats, err
	}

	var out []Share
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("reading row: %w", err)
		}
		line++
		stats.RowsRead++

		day, year, err := parseDayYear(rec[idx["date"]], rec[idx["year"]], line)
		if err != nil {
			return nil, stats, err
		}
		volume, err := strconv.ParseFloat(rec[idx["value"]], 64)
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: parsing value %q: %w", line, rec[idx["value"]], err)
		}

		if year == partialYear {
			stats.DroppedPartialYear++
			continue
		}
		if day.Format(DayLayout) == blackoutDay {
			stats.DroppedBlackout++
			continue
		}
		if volume == 0 {
			stats.DroppedZeroVolume++
			continue
		}

		rawShare := strings.TrimSpace(rec[idx["topic_share"]])
		if rawShare == "" {
			stats.DroppedNoShare++
			continue
		}
		share, err := strconv.ParseFloat(rawShare, 64)
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: parsing topic_share %q: %w", line, rawShare, err)
		}
		if math.IsNaN(share) {
			stats.DroppedNoShare++
			continue
		}

		out = append(out, Share{
			Day:    day,
			Year:   year,
			Outlet: rec[idx["outlet"]],
			Topic:  rec[idx["topic"]],
			Volume: volume,
			Share:  share,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		if out[i].Outlet != out[j].Outlet {
			return out[i].Outlet < out[j].Outlet
		}
		return out[i].Topic < out[j].Topic
	})
	stats.Kept = len(out)
	return out, stats, nil
}

func parseDayYear(rawDate, rawYear string, line int) (time.Time, int, error) {
	ts, err := time.Parse(TimeLayout, rawDate)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("line %d: parsing date %q: %w", line, rawDate, err)
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("line %d: parsing year %q: %w", line, rawYear, err)
	}
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return day, year, nil
}

// columnIndex maps required column names to their positions in the header.
func columnIndex(header []string, names ...string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		pos[strings.TrimSpace(h)] = i
	}

	idx := make(map[string]int, len(names))
	for _, n := range names {
		i, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("missing column %q", n)
		}
		idx[n] = i
	}
	return idx, nil
}

func sortMeasurements(ms []Measurement) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].Day.Equal(ms[j].Day) {
			return ms[i].Day.Before(ms[j].Day)
		}
		if ms[i].Outlet != ms[j].Outlet {
			return ms[i].Outlet < ms[j].Outlet
		}
		return ms[i].Topic < ms[j].Topic
	})
}
