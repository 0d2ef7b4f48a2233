// Package webui exposes the HTTP surface over the digest core: an upload form
// plus a small JSON API for the overview table, filtering, and summaries.
//
// Routes:
//
//	GET  /                   → upload form + dataset state
//	POST /upload             → ingest an uploaded CSV for this session
//	GET  /api/overview       → current overview table as JSON records
//	POST /api/filter         → filter criteria in, filtered rows + counts out
//	GET  /api/pipelines      → pipeline labels and per-pipeline tables
//	GET  /api/legend         → status legend, text/plain
//	GET  /api/column-summary → per-column describe, text/plain
//
// Datasets are scoped per browser session via an opaque cookie token; two
// users never share state, and a failed upload leaves a session's previous
// dataset untouched.
package webui

import (
	"context"
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"

	"digest/internal/dataset"
	"digest/internal/filter"
	"digest/internal/ingest"
	"digest/internal/schema"
	"digest/internal/summary"
)

//go:embed index.tmpl.html
var indexHTML string

// Config controls server startup.
type Config struct {
	Addr string
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg     Config
	mux     *http.ServeMux
	tmpl    *template.Template
	store   *dataset.Store
	preload *dataset.Dataset
	srv     *http.Server
}

// NewServer constructs a Server with routes and the embedded page template.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:   cfg,
		mux:   http.NewServeMux(),
		tmpl:  template.Must(template.New("index").Parse(indexHTML)),
		store: &dataset.Store{},
	}
	s.routes()
	s.srv = &http.Server{Addr: cfg.Addr, Handler: s.mux}
	return s
}

// SetPreload installs a dataset served to sessions that have not uploaded
// anything yet (e.g., loaded from a path or URL at startup).
func (s *Server) SetPreload(d *dataset.Dataset) { s.preload = d }

// Handler returns the route multiplexer, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe starts the HTTP server and blocks until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops the server, waiting for in-flight requests up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/upload", s.handleUpload)
	s.mux.HandleFunc("/api/overview", s.handleOverview)
	s.mux.HandleFunc("/api/filter", s.handleFilter)
	s.mux.HandleFunc("/api/pipelines", s.handlePipelines)
	s.mux.HandleFunc("/api/legend", s.handleLegend)
	s.mux.HandleFunc("/api/column-summary", s.handleColumnSummary)
}

const sessionCookie = "digest_session"

// session returns the caller's session token, setting the cookie on first
// contact.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	return token
}

// current returns the dataset for this session, falling back to the preload.
func (s *Server) current(token string) *dataset.Dataset {
	if d := s.store.Get(token); d != nil {
		return d
	}
	return s.preload
}

// handleIndex renders the upload form and, when a dataset is loaded, its
// summary block.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	token := s.session(w, r)
	data := struct {
		Loaded   bool
		Summary  string
		Sessions []string
		Legend   string
	}{Legend: schema.Legend()}
	if d := s.current(token); d != nil {
		data.Loaded = true
		data.Summary = summary.Counts(d.Overview)
		data.Sessions = d.Sessions
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Println("template error:", err)
	}
}

// handleUpload ingests a multipart CSV upload. Any ingest failure is reported
// as a single message and the session's previous dataset stays in place.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	token := s.session(w, r)

	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "bad upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()
	contents, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	ds, err := ingest.Ingest(contents, hdr.Filename)
	if err != nil {
		// One user-facing string regardless of the failure class.
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.store.Put(token, ds)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// overviewResponse is the JSON shape shared by the overview and filter
// endpoints.
type overviewResponse struct {
	Columns  []string            `json:"columns"`
	Records  []map[string]string `json:"records"`
	Summary  string              `json:"summary"`
	Sessions []string            `json:"sessions,omitempty"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	d := s.current(s.session(w, r))
	if d == nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, overviewResponse{
		Columns:  d.Overview.Columns,
		Records:  d.Overview.Records(),
		Summary:  summary.Counts(d.Overview),
		Sessions: d.Sessions,
	})
}

// handleFilter evaluates filter criteria against the session's overview
// snapshot. An empty result is a well-formed empty table with zero counts; an
// unrecognized operator is a caller bug and comes back 400.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	d := s.current(s.session(w, r))
	if d == nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	var crit filter.Criteria
	if err := json.NewDecoder(r.Body).Decode(&crit); err != nil {
		http.Error(w, "bad criteria: "+err.Error(), http.StatusBadRequest)
		return
	}
	out, err := filter.Apply(d.Overview, crit)
	if err != nil {
		var opErr *filter.InvalidOperatorError
		if errors.As(err, &opErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, overviewResponse{
		Columns: out.Columns,
		Records: out.Records(),
		Summary: summary.Counts(out),
	})
}

func (s *Server) handlePipelines(w http.ResponseWriter, r *http.Request) {
	d := s.current(s.session(w, r))
	if d == nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	type pipelineTable struct {
		Columns []string            `json:"columns"`
		Records []map[string]string `json:"records"`
	}
	resp := struct {
		Labels    []string                 `json:"labels"`
		Pipelines map[string]pipelineTable `json:"pipelines"`
	}{Labels: d.PipelineLabels, Pipelines: make(map[string]pipelineTable, len(d.PipelineLabels))}
	for _, label := range d.PipelineLabels {
		t := d.Pipelines[label]
		resp.Pipelines[label] = pipelineTable{Columns: t.Columns, Records: t.Records()}
	}
	writeJSON(w, resp)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, schema.Legend())
}

func (s *Server) handleColumnSummary(w http.ResponseWriter, r *http.Request) {
	d := s.current(s.session(w, r))
	if d == nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	col := r.URL.Query().Get("column")
	desc, err := summary.DescribeColumn(d.Overview, col)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, desc)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encode response:", err)
	}
}
