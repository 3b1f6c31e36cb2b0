package server

import (
	"log"
	"net/http"

	"medialens/internal/charts"
)

func (s *Server) servePNG(w http.ResponseWriter, data []byte, err error) {
	if err != nil {
		log.Printf("rendering chart: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// chartSelection parses the request filters, short-circuiting to the
// blank placeholder when the selection matches nothing.
func (s *Server) chartSelection(w http.ResponseWriter, r *http.Request) (Selection, bool) {
	sel, err := s.selection(r)
	if err != nil {
		s.servePNG(w, nil, err)
		return Selection{}, false
	}
	if sel.Empty {
		data, err := charts.Blank()
		s.servePNG(w, data, err)
		return Selection{}, false
	}
	return sel, true
}

func (s *Server) handleToneChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.chartSelection(w, r)
	if !ok {
		return
	}
	data, err := s.renderer.ToneLines(sel.storeFilters(), sel.Window)
	s.servePNG(w, data, err)
}

func (s *Server) handleShareChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.chartSelection(w, r)
	if !ok {
		return
	}
	data, err := s.renderer.ShareArea(sel.storeFilters(), sel.ShareOutlet)
	s.servePNG(w, data, err)
}

func (s *Server) handleDiveChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.chartSelection(w, r)
	if !ok {
		return
	}
	data, err := s.renderer.DiveTone(sel.storeFilters(), sel.DiveTopic, sel.Window)
	s.servePNG(w, data, err)
}

func (s *Server) handleVolumeChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.chartSelection(w, r)
	if !ok {
		return
	}
	data, err := s.renderer.VolumeBars(sel.storeFilters(), sel.DiveTopic)
	s.servePNG(w, data, err)
}

func (s *Server) handleYearlyChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.chartSelection(w, r)
	if !ok {
		return
	}
	data, err := s.renderer.YearlyLines(sel.storeFilters())
	s.servePNG(w, data, err)
}
