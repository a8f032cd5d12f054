// Package web serves the chart and the editing API over HTTP.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"gantt2svg/internal/config"
	"gantt2svg/internal/metrics"
	"gantt2svg/internal/render"
	"gantt2svg/internal/store"
	"gantt2svg/pkg/plan"
	"gantt2svg/pkg/timeline"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// Server serves the chart page, the SVG and JSON views and the editing API.
type Server struct {
	store    *store.Store
	renderer *render.Renderer
	cfg      config.Config
	logger   *zap.Logger
	mux      *http.ServeMux

	// charts collapses concurrent renders of the same snapshot and view,
	// as when every open page refetches after an update event.
	charts singleflight.Group
}

// NewServer creates a server over the given store.
func NewServer(st *store.Store, renderer *render.Renderer, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		store:    st,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /chart.svg", s.handleChart)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)

	s.mux.HandleFunc("GET /api/projects", s.handleListProjects)
	s.mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	s.mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	s.mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	s.mux.HandleFunc("POST /api/projects/{id}/stages/{stageID}/tasks", s.handleAddTask)
	s.mux.HandleFunc("PUT /api/projects/{id}/stages/{stageID}/tasks/{taskID}", s.handleUpdateTask)
	s.mux.HandleFunc("DELETE /api/projects/{id}/stages/{stageID}/tasks/{taskID}", s.handleDeleteTask)
	s.mux.HandleFunc("POST /api/rows/{id}", s.handleRowUpdate)

	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// viewMode reads ?view=, falling back to the configured default.
func (s *Server) viewMode(r *http.Request) (timeline.ViewMode, error) {
	v := r.URL.Query().Get("view")
	if v == "" {
		return s.cfg.Chart.ViewMode, nil
	}
	return timeline.ParseViewMode(v)
}

type projectSummary struct {
	ID       string
	Name     string
	Start    plan.Date
	End      plan.Date
	Progress int
	Tasks    int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap := s.store.Snapshot()
	svg, err := s.chart(snap, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Inline SVG must not carry the XML declaration
	if i := strings.Index(svg, "<svg"); i > 0 {
		svg = svg[i:]
	}

	summaries := make([]projectSummary, len(snap.Projects))
	for i, p := range snap.Projects {
		summaries[i] = projectSummary{
			ID:       p.ID,
			Name:     p.Name,
			Start:    p.StartDate,
			End:      p.EndDate,
			Progress: plan.ProjectProgress(p),
			Tasks:    p.TaskCount(),
		}
	}

	data := struct {
		Title    string
		Mode     timeline.ViewMode
		Modes    []timeline.ViewMode
		Chart    template.HTML
		Projects []projectSummary
		Version  uint64
	}{
		Title:    s.cfg.Chart.Title,
		Mode:     mode,
		Modes:    timeline.ViewModes(),
		Chart:    template.HTML(svg),
		Projects: summaries,
		Version:  snap.Version,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("Failed to render index page", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg, err := s.chart(s.store.Snapshot(), mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(svg))
}

func (s *Server) chart(snap *store.Snapshot, mode timeline.ViewMode) (string, error) {
	key := fmt.Sprintf("%d:%s", snap.Version, mode)
	v, err, shared := s.charts.Do(key, func() (any, error) {
		svg, _, err := s.renderer.Chart(snap.Projects, mode)
		return svg, err
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.logger.Debug("Chart render shared", zap.String("key", key))
	}
	return v.(string), nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	layout, err := s.layout(s.store.Snapshot(), mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) layout(snap *store.Snapshot, mode timeline.ViewMode) (*timeline.Layout, error) {
	return timeline.Compute(plan.Flatten(snap.Projects), mode, timeline.Options{Locale: s.cfg.Chart.Locale})
}

// handleEvents streams one "snapshot" event per published version,
// starting with the current one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	updates := s.store.Subscribe(r.Context())
	fmt.Fprintf(w, "event: snapshot\ndata: %d\n\n", s.store.Snapshot().Version)
	flusher.Flush()

	for snap := range updates {
		fmt.Fprintf(w, "event: snapshot\ndata: %d\n\n", snap.Version)
		flusher.Flush()
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  snap.Version,
		"projects": snap.Projects,
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var draft plan.ProjectDraft
	if !s.decode(w, r, &draft) {
		return
	}
	s.dispatch(w, r, http.StatusCreated, store.CreateProject{Draft: draft})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var draft plan.ProjectDraft
	if !s.decode(w, r, &draft) {
		return
	}
	s.dispatch(w, r, http.StatusOK, store.UpdateProject{ID: r.PathValue("id"), Draft: draft})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, http.StatusOK, store.DeleteProject{ID: r.PathValue("id")})
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var draft plan.TaskDraft
	if !s.decode(w, r, &draft) {
		return
	}
	s.dispatch(w, r, http.StatusCreated, store.AddTask{
		ProjectID: r.PathValue("id"),
		StageID:   r.PathValue("stageID"),
		Draft:     draft,
	})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var draft plan.TaskDraft
	if !s.decode(w, r, &draft) {
		return
	}
	s.dispatch(w, r, http.StatusOK, store.UpdateTask{
		ProjectID: r.PathValue("id"),
		StageID:   r.PathValue("stageID"),
		TaskID:    r.PathValue("taskID"),
		Draft:     draft,
	})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, http.StatusOK, store.DeleteTask{
		ProjectID: r.PathValue("id"),
		StageID:   r.PathValue("stageID"),
		TaskID:    r.PathValue("taskID"),
	})
}

// rowUpdateRequest carries either explicit dates or the pixel geometry of
// a dragged bar. Progress may accompany either.
type rowUpdateRequest struct {
	StartDate *plan.Date `json:"startDate"`
	EndDate   *plan.Date `json:"endDate"`
	Progress  *int       `json:"progress"`
	Offset    *int       `json:"offset"`
	Width     *int       `json:"width"`
	View      string     `json:"view"`
}

func (s *Server) handleRowUpdate(w http.ResponseWriter, r *http.Request) {
	var req rowUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}

	update := plan.RowUpdate{RowID: r.PathValue("id"), Start: req.StartDate, End: req.EndDate}
	if req.Offset != nil || req.Width != nil {
		if req.Offset == nil || req.Width == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "offset and width must be given together"})
			return
		}
		mode := s.cfg.Chart.ViewMode
		if req.View != "" {
			var err error
			if mode, err = timeline.ParseViewMode(req.View); err != nil {
				s.writeError(w, err)
				return
			}
		}
		// Pixels are relative to the layout the client is looking at,
		// which is the one of the current snapshot.
		layout, err := s.layout(s.store.Snapshot(), mode)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if update, err = layout.DragUpdate(update.RowID, *req.Offset, *req.Width); err != nil {
			s.writeError(w, err)
			return
		}
	}
	update.Progress = req.Progress

	s.dispatch(w, r, http.StatusOK, store.ApplyRowUpdate{Update: update})
}

type mutationResponse struct {
	Version uint64 `json:"version"`
	ID      string `json:"id,omitempty"`
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, status int, intent store.Intent) {
	res, err := s.store.Dispatch(r.Context(), intent)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, mutationResponse{Version: res.Snapshot.Version, ID: res.ID})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *plan.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Fields: verr.Fields})
	case errors.Is(err, timeline.ErrUnknownViewMode):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, plan.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, plan.ErrDerivedRow):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
