// Package server exposes a read-only HTTP view of the project collection
// for local dashboards and scripts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/tracker"
	"github.com/josephgoksu/tasknest/internal/transfer"
	"github.com/josephgoksu/tasknest/models"
)

// ProjectSource is the tracker surface the server reads from.
type ProjectSource interface {
	Projects() models.ProjectsList
	Project(id string) (models.Project, error)
	Revision() uint64
	WriterID() string
	Subscribe(fn func(tracker.Event)) func()
}

var _ ProjectSource = (*tracker.Tracker)(nil)

// Options configures New.
type Options struct {
	Addr     string
	Backend  string
	Version  string
	Origins  []string // allowed CORS origins
	Gatherer prometheus.Gatherer
}

type Server struct {
	source  ProjectSource
	opts    Options
	origins map[string]struct{}
	server  *http.Server

	// base is the parent of every request context; Shutdown cancels it so
	// event streams end.
	base   context.Context
	cancel context.CancelFunc
}

func New(source ProjectSource, opts Options) *Server {
	s := &Server{
		source:  source,
		opts:    opts,
		origins: make(map[string]struct{}, len(opts.Origins)),
	}
	for _, o := range opts.Origins {
		s.origins[o] = struct{}{}
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	s.server = &http.Server{
		Addr:        opts.Addr,
		Handler:     s.registerRoutes(),
		BaseContext: func(net.Listener) context.Context { return s.base },
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("api server listening", "addr", s.opts.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.server.Shutdown(ctx)
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("GET /api/projects/{id}/tasks", s.handleTasks)
	mux.HandleFunc("GET /api/projects/{id}/export", s.handleExport)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	if s.opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return s.withCORS(s.withRevision(mux))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, map[string]any{
		"backend":  s.opts.Backend,
		"version":  s.opts.Version,
		"revision": s.source.Revision(),
		"writer":   s.source.WriterID(),
		"projects": len(s.source.Projects()),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects := s.source.Projects()
	if projects == nil {
		projects = models.ProjectsList{}
	}
	writeAPIJSON(w, projects)
}

// project looks up the {id} path value, writing a 404 when it is unknown.
func (s *Server) project(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	p, err := s.source.Project(r.PathValue("id"))
	if err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return models.Project{}, false
	}
	return p, true
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.project(w, r); ok {
		writeAPIJSON(w, p)
	}
}

// handleTasks returns the task tree, or the flat matches when ?search= is set.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	if q := r.URL.Query().Get("search"); q != "" {
		writeAPIJSON(w, tasktree.Search(p.TasksList, q))
		return
	}
	writeAPIJSON(w, p.TasksList)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.project(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = transfer.FormatJSON
	}
	text, err := transfer.ExportAs(p.TasksList, format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, text)
}

// handleEvents streams collection changes as server-sent events until the
// client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := make(chan tracker.Event, 16)
	cancel := s.source.Subscribe(func(e tracker.Event) {
		select {
		case events <- e:
		default:
			slog.Debug("dropping event for slow client", "revision", e.Revision)
		}
	})
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			data, err := json.Marshal(map[string]any{"source": e.Source, "revision": e.Revision})
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeAPIJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
