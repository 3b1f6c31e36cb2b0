// Package server renders the dashboard page and serves the chart
// images and the JSON API behind it.
package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"

	"medialens/internal/charts"
	"medialens/internal/config"
	"medialens/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed content/*.md
var contentFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the dashboard.
type Server struct {
	st       *store.Store
	cfg      *config.Config
	renderer *charts.Renderer
	pages    map[string]*template.Template
	notes    map[string]string
	router   chi.Router
}

// New creates a new Server.
func New(st *store.Store, cfg *config.Config) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"dashboard.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	notes, err := loadNotes()
	if err != nil {
		return nil, err
	}

	s := &Server{
		st:       st,
		cfg:      cfg,
		renderer: charts.New(st),
		pages:    pages,
		notes:    notes,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	if strings.EqualFold(s.cfg.Logging.Level, "DEBUG") {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)

	r.Route("/charts", func(r chi.Router) {
		r.Get("/tone.png", s.handleToneChart)
		r.Get("/share.png", s.handleShareChart)
		r.Get("/dive.png", s.handleDiveChart)
		r.Get("/volume.png", s.handleVolumeChart)
		r.Get("/yearly.png", s.handleYearlyChart)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleAPISummary)
		r.Get("/filters", s.handleAPIFilters)
		r.Get("/heatmap", s.handleAPIHeatmap)
		r.Get("/tone", s.handleAPITone)
		r.Get("/share", s.handleAPIShare)
		r.Get("/yearly", s.handleAPIYearly)
		r.Get("/correlation", s.handleAPICorrelation)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// selection loads the current domain and parses the request's filter
// state against it.
func (s *Server) selection(r *http.Request) (Selection, error) {
	dom, err := s.st.Domain()
	if err != nil {
		return Selection{}, err
	}
	return parseSelection(r.URL.Query(), s.cfg, *dom), nil
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func loadNotes() (map[string]string, error) {
	entries, err := contentFS.ReadDir("content")
	if err != nil {
		return nil, fmt.Errorf("reading content dir: %w", err)
	}
	notes := make(map[string]string, len(entries))
	for _, e := range entries {
		raw, err := contentFS.ReadFile(path.Join("content", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		notes[strings.TrimSuffix(e.Name(), ".md")] = string(raw)
	}
	return notes, nil
}

// Serve starts the HTTP server and blocks until ctx is canceled, then
// drains in-flight requests before returning.
func Serve(ctx context.Context, st *store.Store, cfg *config.Config) error {
	srv, err := New(st, cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on http://%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
