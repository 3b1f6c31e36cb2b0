package server

import (
	"fmt"
	"html/template"
	"log"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"

	"medialens/internal/dataset"
	"medialens/internal/store"
)

type kpi struct {
	Label string
	Value string
	Hint  string
}

type filterOption struct {
	Name    string
	Color   string
	Checked bool
}

type heatmapCell struct {
	Label     string
	Color     string
	TextColor string
	Tooltip   string
	Href      string
	Active    bool
	HasData   bool
}

type heatmapRow struct {
	Topic string
	Cells []heatmapCell
}

type drillBar struct {
	Outlet   string
	Label    string
	Color    string
	Width    float64
	Negative bool
}

type drillPanel struct {
	Topic     string
	Year      int
	Bars      []drillBar
	CloseHref string
}

type dashboardView struct {
	Sel          Selection
	Domain       store.Domain
	Summary      store.Summary
	KPIs         []kpi
	Years        []int // selectable years for the form
	Heatmap      []heatmapRow
	HeatmapYears []int // column headers, years present after filtering
	Drill        *drillPanel
	Windows      []int
	Outlets      []filterOption
	Topics       []filterOption
	Notes        map[string]string
	Query        template.URL
	HasData      bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dom, err := s.st.Domain()
	if err != nil {
		log.Printf("loading domain: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sel := parseSelection(r.URL.Query(), s.cfg, *dom)

	view := dashboardView{
		Sel:     sel,
		Domain:  *dom,
		Windows: dataset.Windows,
		Notes:   s.notes,
		Query:   template.URL(sel.Encode()),
		HasData: len(dom.Outlets) > 0,
	}
	if view.HasData {
		for y := dom.YearMin; y <= dom.YearMax; y++ {
			view.Years = append(view.Years, y)
		}
	}
	for _, o := range dom.Outlets {
		view.Outlets = append(view.Outlets, filterOption{
			Name: o, Color: dataset.OutletColor(o), Checked: sel.hasOutlet(o),
		})
	}
	for _, t := range dom.Topics {
		view.Topics = append(view.Topics, filterOption{
			Name: t, Color: dataset.TopicColor(t), Checked: sel.hasTopic(t),
		})
	}

	if !view.HasData || sel.Empty {
		s.render(w, "dashboard.html", view)
		return
	}

	f := sel.storeFilters()
	sum, err := s.st.Summary(f)
	if err != nil {
		log.Printf("loading summary: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	view.Summary = *sum
	view.KPIs = []kpi{
		{Label: "Outlets", Value: strconv.Itoa(sum.Outlets)},
		{Label: "Topics", Value: strconv.Itoa(sum.Topics)},
		{Label: "Years", Value: strconv.Itoa(sum.Years)},
		{Label: "Measured values", Value: humanize.Comma(sum.Measurements),
			Hint: sum.FirstDay + " to " + sum.LastDay},
	}

	heatmap, years, err := s.buildHeatmap(f, sel)
	if err != nil {
		log.Printf("building heatmap: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	view.Heatmap = heatmap
	view.HeatmapYears = years

	if sel.CellTopic != "" {
		drill, err := s.buildDrill(f, sel)
		if err != nil {
			log.Printf("building drill-down: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		view.Drill = drill
	}

	s.render(w, "dashboard.html", view)
}

// buildHeatmap lays the aggregated cells out as a topic-by-year grid.
// Cell links toggle the per-outlet drill-down.
func (s *Server) buildHeatmap(f store.Filters, sel Selection) ([]heatmapRow, []int, error) {
	cells, err := s.st.HeatmapCells(f)
	if err != nil {
		return nil, nil, err
	}

	var years []int
	var topics []string
	seenYear := make(map[int]bool)
	seenTopic := make(map[string]bool)
	index := make(map[string]map[int]store.HeatmapCell)
	for _, c := range cells {
		if !seenYear[c.Year] {
			seenYear[c.Year] = true
			years = append(years, c.Year)
		}
		if !seenTopic[c.Topic] {
			seenTopic[c.Topic] = true
			topics = append(topics, c.Topic)
			index[c.Topic] = make(map[int]store.HeatmapCell)
		}
		index[c.Topic][c.Year] = c
	}
	sort.Ints(years)

	rows := make([]heatmapRow, 0, len(topics))
	for _, topic := range topics {
		row := heatmapRow{Topic: topic}
		for _, year := range years {
			c, ok := index[topic][year]
			if !ok {
				row.Cells = append(row.Cells, heatmapCell{})
				continue
			}

			active := sel.CellTopic == topic && sel.CellYear == year
			link := sel
			if active {
				// clicking the open cell closes the drill-down
				link.CellTopic, link.CellYear = "", 0
			} else {
				link.CellTopic, link.CellYear = topic, year
			}

			row.Cells = append(row.Cells, heatmapCell{
				Label:     fmt.Sprintf("%.1f", c.MeanTone),
				Color:     dataset.ToneColor(c.MeanTone),
				TextColor: dataset.ToneTextColor(c.MeanTone),
				Tooltip:   cellTooltip(c),
				Href:      "/?" + link.Encode() + "#heatmap",
				Active:    active,
				HasData:   true,
			})
		}
		rows = append(rows, row)
	}
	return rows, years, nil
}

func cellTooltip(c store.HeatmapCell) string {
	t := fmt.Sprintf("mean %+.2f over %d days, std %.2f, %+.2f vs prior year",
		c.MeanTone, c.Count, c.StdDev, c.YoYChange)
	if c.MostNegativeOutlet != "" && c.MostNegativeOutlet != c.MostPositiveOutlet {
		t += fmt.Sprintf(". Most negative: %s, most positive: %s",
			c.MostNegativeOutlet, c.MostPositiveOutlet)
	}
	return t
}

// buildDrill ranks the outlets inside one heatmap cell. Bar widths are
// scaled to the largest absolute mean so the sign split stays centered.
func (s *Server) buildDrill(f store.Filters, sel Selection) (*drillPanel, error) {
	means, err := s.st.OutletMeans(f, sel.CellTopic, sel.CellYear)
	if err != nil {
		return nil, err
	}

	var maxAbs float64
	for _, m := range means {
		maxAbs = math.Max(maxAbs, math.Abs(m.MeanTone))
	}

	bars := make([]drillBar, 0, len(means))
	for _, m := range means {
		width := 0.0
		if maxAbs > 0 {
			width = math.Round(math.Abs(m.MeanTone)/maxAbs*1000) / 10
		}
		bars = append(bars, drillBar{
			Outlet:   m.Outlet,
			Label:    fmt.Sprintf("%+.2f", m.MeanTone),
			Color:    dataset.OutletColor(m.Outlet),
			Width:    width,
			Negative: m.MeanTone < 0,
		})
	}

	closeLink := sel
	closeLink.CellTopic, closeLink.CellYear = "", 0
	return &drillPanel{
		Topic:     sel.CellTopic,
		Year:      sel.CellYear,
		Bars:      bars,
		CloseHref: "/?" + closeLink.Encode() + "#heatmap",
	}, nil
}
