package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/climatetrends/internal/chart"
	"github.com/TobiSchelling/climatetrends/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// The report's correlation matrix is a pipe table.
var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// recentRuns is how many runs the index lists.
const recentRuns = 50

// Server serves run history, reports and charts.
type Server struct {
	db        *database.DB
	chartsDir string
	pages     map[string]*template.Template
	mux       *http.ServeMux
}

// New creates a new Server. Charts are read from chartsDir on each request.
func New(db *database.DB, chartsDir string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"formatTime": formatTime,
		"roundDuration": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so {{define "content"}} does not collide.
	pageNames := []string{"index.html", "run.html"}
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

	s := &Server{db: db, chartsDir: chartsDir, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/latest", s.handleLatest)
	s.mux.HandleFunc("/run/", s.handleRun)
	s.mux.HandleFunc("/charts/", s.handleChart)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	runs, err := s.db.GetRecentRuns(recentRuns)
	if err != nil {
		log.Printf("Error listing runs: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		log.Printf("Error reading stats: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Runs":  runs,
		"Stats": stats,
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetLatestSuccessfulRun()
	if err != nil || run == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/run/%d", run.ID), http.StatusFound)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/run/")
	if raw == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	run, err := s.db.GetRun(id)
	if err != nil {
		log.Printf("Error loading run %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}
	datasets, err := s.db.GetDatasetStats(id)
	if err != nil {
		log.Printf("Error loading dataset stats for run %d: %v", id, err)
	}

	// Chart files are overwritten by every run, so only the newest successful
	// run's report matches the images it links.
	var chartsFrom int64
	if latest, err := s.db.GetLatestSuccessfulRun(); err == nil && latest != nil && latest.ID != run.ID {
		chartsFrom = latest.ID
	}

	s.render(w, "run.html", map[string]any{
		"Run":        run,
		"Datasets":   datasets,
		"ChartsFrom": chartsFrom,
	})
}

// handleChart serves only the chart files the producer writes, since the
// charts directory is usually the working directory.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/charts/")
	if !chart.IsChartFile(name) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, filepath.Join(s.chartsDir, name))
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

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, chartsDir string, port int) error {
	srv, err := New(db, chartsDir)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
