package dataset

import (
	"fmt"
	"math"
)

var outletColors = map[string]string{
	"NYTimes":        "#1f77b4",
	"FoxNews":        "#d62728",
	"CNN":            "#ff7f0e",
	"WashingtonPost": "#2ca02c",
	"NBCNews":        "#9467bd",
	"Politico":       "#8c564b",
	"WSJ":            "#e377c2",
}

var topicColors = map[string]string{
	"Elections":         "#4a7cff",
	"Government":        "#ff6b6b",
	"Immigration":       "#ffa94d",
	"ForeignPolicy":     "#51cf66",
	"Economy":           "#845ef7",
	"Political Figures": "#f06595",
}

var outletAbbrevs = map[string]string{
	"NYTimes":        "NYT",
	"FoxNews":        "Fox",
	"CNN":            "CNN",
	"WashingtonPost": "WaPo",
	"NBCNews":        "NBC",
	"Politico":       "Politico",
	"WSJ":            "WSJ",
}

// neutralColor covers outlets or topics outside the tracked sets.
const neutralColor = "#8a8f98"

// OutletColor returns the display color for an outlet as a #rrggbb string.
func OutletColor(name string) string {
	if c, ok := outletColors[name]; ok {
		return c
	}
	return neutralColor
}

// OutletAbbrev returns a short label for an outlet, used where the
// full name does not fit.
func OutletAbbrev(name string) string {
	if a, ok := outletAbbrevs[name]; ok {
		return a
	}
	return name
}

// TopicColor returns the display color for a topic as a #rrggbb string.
func TopicColor(name string) string {
	if c, ok := topicColors[name]; ok {
		return c
	}
	return neutralColor
}

// Diverging tone scale anchors (ColorBrewer RdYlGn endpoints).
var (
	toneNeg = [3]int{0xa5, 0x00, 0x26}
	toneMid = [3]int{0xff, 0xff, 0xbf}
	tonePos = [3]int{0x00, 0x68, 0x37}
)

// ToneColor maps a tone value onto the red-yellow-green diverging scale
// spanning [ToneMin, ToneMax] with the neutral midpoint at zero.
func ToneColor(v float64) string {
	if v < ToneMin {
		v = ToneMin
	}
	if v > ToneMax {
		v = ToneMax
	}

	from, to := toneMid, tonePos
	t := v / ToneMax
	if v < 0 {
		from, to = toneNeg, toneMid
		t = (v - ToneMin) / -ToneMin
	}

	r := lerpChannel(from[0], to[0], t)
	g := lerpChannel(from[1], to[1], t)
	b := lerpChannel(from[2], to[2], t)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ToneTextColor picks a readable cell text color over ToneColor's output.
// Only strongly negative cells are dark enough to need white text.
func ToneTextColor(v float64) string {
	if v > -1.0 {
		return "#1a1a1a"
	}
	return "#ffffff"
}

func lerpChannel(from, to int, t float64) int {
	return int(math.Round(float64(from) + t*float64(to-from)))
}
