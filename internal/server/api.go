package server

import (
	"encoding/json"
	"log"
	"net/http"

	"medialens/internal/analysis"
	"medialens/internal/dataset"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func (s *Server) apiError(w http.ResponseWriter, err error) {
	log.Printf("api: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

type summaryResponse struct {
	Outlets      int    `json:"outlets"`
	Topics       int    `json:"topics"`
	Years        int    `json:"years"`
	Measurements int64  `json:"measurements"`
	FirstDay     string `json:"first_day,omitempty"`
	LastDay      string `json:"last_day,omitempty"`
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	if sel.Empty {
		writeJSON(w, http.StatusOK, summaryResponse{})
		return
	}
	sum, err := s.st.Summary(sel.storeFilters())
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Outlets:      sum.Outlets,
		Topics:       sum.Topics,
		Years:        sum.Years,
		Measurements: sum.Measurements,
		FirstDay:     sum.FirstDay,
		LastDay:      sum.LastDay,
	})
}

type filterDefaults struct {
	Window      int    `json:"window"`
	YearFrom    int    `json:"year_from"`
	YearTo      int    `json:"year_to"`
	ShareOutlet string `json:"share_outlet"`
	DiveTopic   string `json:"dive_topic"`
}

type filtersResponse struct {
	Outlets  []string       `json:"outlets"`
	Topics   []string       `json:"topics"`
	YearMin  int            `json:"year_min"`
	YearMax  int            `json:"year_max"`
	Windows  []int          `json:"windows"`
	Defaults filterDefaults `json:"defaults"`
}

func (s *Server) handleAPIFilters(w http.ResponseWriter, r *http.Request) {
	dom, err := s.st.Domain()
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filtersResponse{
		Outlets: dom.Outlets,
		Topics:  dom.Topics,
		YearMin: dom.YearMin,
		YearMax: dom.YearMax,
		Windows: dataset.Windows,
		Defaults: filterDefaults{
			Window:      s.cfg.Defaults.Window,
			YearFrom:    s.cfg.Defaults.YearFrom,
			YearTo:      s.cfg.Defaults.YearTo,
			ShareOutlet: s.cfg.Defaults.ShareOutlet,
			DiveTopic:   s.cfg.Defaults.DiveTopic,
		},
	})
}

type heatmapCellResponse struct {
	Topic              string  `json:"topic"`
	Year               int     `json:"year"`
	MeanTone           float64 `json:"mean_tone"`
	StdDev             float64 `json:"std_dev"`
	Count              int     `json:"count"`
	YoYChange          float64 `json:"yoy_change"`
	MostNegativeOutlet string  `json:"most_negative_outlet"`
	MostPositiveOutlet string  `json:"most_positive_outlet"`
}

func (s *Server) handleAPIHeatmap(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	cells := []heatmapCellResponse{}
	if !sel.Empty {
		rows, err := s.st.HeatmapCells(sel.storeFilters())
		if err != nil {
			s.apiError(w, err)
			return
		}
		for _, c := range rows {
			cells = append(cells, heatmapCellResponse{
				Topic:              c.Topic,
				Year:               c.Year,
				MeanTone:           c.MeanTone,
				StdDev:             c.StdDev,
				Count:              c.Count,
				YoYChange:          c.YoYChange,
				MostNegativeOutlet: c.MostNegativeOutlet,
				MostPositiveOutlet: c.MostPositiveOutlet,
			})
		}
	}
	writeJSON(w, http.StatusOK, cells)
}

type tonePoint struct {
	Day  string  `json:"day"`
	Tone float64 `json:"tone"`
}

type toneSeriesResponse struct {
	Outlet string      `json:"outlet"`
	Points []tonePoint `json:"points"`
}

type toneResponse struct {
	Window int                  `json:"window"`
	Series []toneSeriesResponse `json:"series"`
}

func (s *Server) handleAPITone(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	resp := toneResponse{Window: sel.Window, Series: []toneSeriesResponse{}}
	if !sel.Empty {
		rows, err := s.st.DailyTones(sel.storeFilters())
		if err != nil {
			s.apiError(w, err)
			return
		}
		for _, ser := range analysis.OutletToneSeries(rows, sel.Window) {
			out := toneSeriesResponse{Outlet: ser.Name, Points: make([]tonePoint, 0, len(ser.Points))}
			for _, p := range ser.Points {
				out.Points = append(out.Points, tonePoint{Day: p.Day.Format(dataset.DayLayout), Tone: p.Value})
			}
			resp.Series = append(resp.Series, out)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type shareResponse struct {
	Outlet    string               `json:"outlet"`
	Months    []string             `json:"months"`
	Topics    []string             `json:"topics"`
	Fractions map[string][]float64 `json:"fractions"`
}

func (s *Server) handleAPIShare(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	resp := shareResponse{
		Outlet:    sel.ShareOutlet,
		Months:    []string{},
		Topics:    []string{},
		Fractions: map[string][]float64{},
	}
	if !sel.Empty && sel.ShareOutlet != "" {
		rows, err := s.st.MonthlyShares(sel.storeFilters(), sel.ShareOutlet)
		if err != nil {
			s.apiError(w, err)
			return
		}
		m := analysis.BuildShareMatrix(rows)
		for _, month := range m.Months {
			resp.Months = append(resp.Months, month.Format("2006-01"))
		}
		resp.Topics = m.Topics
		resp.Fractions = m.Frac
	}
	writeJSON(w, http.StatusOK, resp)
}

type yearlyToneRow struct {
	Year     int     `json:"year"`
	Outlet   string  `json:"outlet"`
	MeanTone float64 `json:"mean_tone"`
}

func (s *Server) handleAPIYearly(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	rows := []yearlyToneRow{}
	if !sel.Empty {
		means, err := s.st.YearlyTones(sel.storeFilters())
		if err != nil {
			s.apiError(w, err)
			return
		}
		for _, m := range means {
			rows = append(rows, yearlyToneRow{Year: m.Year, Outlet: m.Outlet, MeanTone: m.Mean})
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

type correlationResponse struct {
	Window  int         `json:"window"`
	Outlets []string    `json:"outlets"`
	Matrix  [][]float64 `json:"matrix"`
}

// handleAPICorrelation reports how similarly outlet tone lines move,
// computed on the same smoothed series the tone chart draws.
func (s *Server) handleAPICorrelation(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection(r)
	if err != nil {
		s.apiError(w, err)
		return
	}
	resp := correlationResponse{Window: sel.Window, Outlets: []string{}, Matrix: [][]float64{}}
	if !sel.Empty {
		rows, err := s.st.DailyTones(sel.storeFilters())
		if err != nil {
			s.apiError(w, err)
			return
		}
		c := analysis.Correlate(analysis.OutletToneSeries(rows, sel.Window))
		resp.Outlets = c.Outlets
		resp.Matrix = c.R
	}
	writeJSON(w, http.StatusOK, resp)
}
