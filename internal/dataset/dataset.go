// Package dataset defines the coverage dataset's domain model: the tracked
// outlets and topics, their display palettes, and the decoding and cleaning
// of the shipped CSV files.
package dataset

import "time"

// File names the dataset ships under, resolved against the data directory.
const (
	ToneFileName  = "gdelt_us_politics_tone_and_topics_long.csv"
	ShareFileName = "gdelt_us_politics_topic_share.csv"
)

// TimeLayout is the timestamp format used in both CSV files.
const TimeLayout = "20060102T150405Z"

// DayLayout is the canonical day key format used throughout the module.
const DayLayout = "2006-01-02"

// Tone bounds. Values outside this range are measurement artifacts and get
// clipped on import.
const (
	ToneMin = -10.0
	ToneMax = 10.0
)

// partialYear has incomplete coverage and is dropped on import.
const partialYear = 2026

// blackoutDay had an upstream ingest outage; its rows carry no signal.
const blackoutDay = "2025-12-06"

// Outlets are the tracked news organizations in display order.
var Outlets = []string{
	"NYTimes",
	"FoxNews",
	"CNN",
	"WashingtonPost",
	"NBCNews",
	"Politico",
	"WSJ",
}

// Topics are the tracked subject categories in display order.
var Topics = []string{
	"Elections",
	"Government",
	"Immigration",
	"ForeignPolicy",
	"Economy",
	"Political Figures",
}

// Windows are the selectable smoothing windows in days.
var Windows = []int{1, 7, 14, 30, 60, 90}

// DefaultWindow is the smoothing window used when none is selected.
const DefaultWindow = 30

// Measurement is one cleaned outlet/topic/day observation with the tone and
// volume metrics pivoted onto a single row. A nil field means the source
// file carried no row for that metric.
type Measurement struct {
	Day    time.Time
	Year   int
	Outlet string
	Topic  string
	Tone   *float64
	Volume *float64
}

// Share is one cleaned row of the topic share file.
type Share struct {
	Day    time.Time
	Year   int
	Outlet string
	Topic  string
	Volume float64
	Share  float64
}

// OutletIndex returns the display-order index of an outlet. Names outside
// the tracked set sort after it.
func OutletIndex(name string) int {
	for i, o := range Outlets {
		if o == name {
			return i
		}
	}
	return len(Outlets)
}

// TopicIndex returns the display-order index of a topic. Names outside the
// tracked set sort after it.
func TopicIndex(name string) int {
	for i, t := range Topics {
		if t == name {
			return i
		}
	}
	return len(Topics)
}

// ValidWindow reports whether w is one of the selectable smoothing windows.
func ValidWindow(w int) bool {
	for _, v := range Windows {
		if v == w {
			return true
		}
	}
	return false
}
