// Package charts renders the dashboard figures as PNG images.
//
// A Renderer reads aggregated rows from the store and draws them with
// go-chart. Every method returns the encoded PNG bytes so the same
// code serves both the HTTP handlers and the export command.
package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"medialens/internal/store"
)

const (
	chartWidth  = 1100
	chartHeight = 360
)

// Renderer draws charts from store aggregates.
type Renderer struct {
	st *store.Store
}

// New creates a Renderer backed by st.
func New(st *store.Store) *Renderer {
	return &Renderer{st: st}
}

// hexColor converts a "#rrggbb" palette entry to a drawing color.
func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2.2,
		StrokeColor: col,
	}
}

func dotLineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2.2,
		StrokeColor: col,
		DotWidth:    4,
		DotColor:    col,
	}
}

// zeroRule draws a dashed horizontal guide at tone zero. The series
// carries no name so the legend skips it.
func zeroRule(from, to time.Time) chart.TimeSeries {
	return chart.TimeSeries{
		XValues: []time.Time{from, to},
		YValues: []float64{0, 0},
		Style: chart.Style{
			StrokeWidth:     1.2,
			StrokeColor:     drawing.Color{R: 120, G: 124, B: 130, A: 255},
			StrokeDashArray: []float64{4, 4},
		},
	}
}

// padSinglePoint duplicates a lone observation one day out. go-chart
// cannot derive an axis range from a single x value.
func padSinglePoint(times []time.Time, ys []float64) ([]time.Time, []float64) {
	if len(times) != 1 {
		return times, ys
	}
	return []time.Time{times[0], times[0].AddDate(0, 0, 1)}, []float64{ys[0], ys[0]}
}

func renderPNG(ch *chart.Chart, caption string) ([]byte, error) {
	ch.Width = chartWidth
	ch.Height = chartHeight
	ch.Elements = []chart.Renderable{chart.Legend(ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return finishPNG(&buf, caption)
}

func finishPNG(buf *bytes.Buffer, caption string) ([]byte, error) {
	if caption == "" {
		return buf.Bytes(), nil
	}
	img, err := png.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decoding chart: %w", err)
	}
	return encodePNG(stamp(img, caption))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Blank returns the placeholder image shown when the current filters
// match nothing.
func Blank() ([]byte, error) {
	return blank(chartWidth, chartHeight)
}

func blank(w, h int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := color.RGBA{R: 250, G: 250, B: 251, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, bg)
		}
	}
	return encodePNG(stamp(img, "No data for the current filters."))
}
