package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nshaw/breakdown/embed/webui"
	"github.com/nshaw/breakdown/internal/db"
	"github.com/nshaw/breakdown/internal/observability"
	"github.com/nshaw/breakdown/internal/planner"
	"github.com/nshaw/breakdown/pkg/models"
)

type Server struct {
	db      *db.DB
	planner *planner.Service
	log     *observability.Logger
	server  *http.Server
}

func NewServer(database *db.DB, svc *planner.Service, logger *observability.Logger) *Server {
	return &Server{db: database, planner: svc, log: logger}
}

// Handler builds the full route tree, including the embedded front end.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("POST /api/plans", s.handleCreatePlan)
	mux.HandleFunc("GET /api/plans", s.handleListPlans)
	mux.HandleFunc("GET /api/plans/{id}", s.handleGetPlan)
	mux.HandleFunc("DELETE /api/plans/{id}", s.handleDeletePlan)
	mux.HandleFunc("GET /api/plans/{id}/critical-path", s.handleCriticalPath)
	mux.HandleFunc("PUT /api/tasks/{id}/status", s.handleUpdateTaskStatus)

	// Static front end
	mux.Handle("/", http.FileServer(http.FS(webui.Assets)))

	return withCORS(s.withLogging(mux))
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type goalRequest struct {
	Goal string `json:"goal"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := s.planner.CreatePlan(r.Context(), req.Goal)
	if errors.Is(err, planner.ErrEmptyGoal) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "task planning service temporarily unavailable")
		return
	}

	if err := s.db.CreatePlan(r.Context(), plan); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.LogPlanCreated(plan.ID, plan.Goal, len(plan.Tasks))
	s.respondJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.db.ListPlans(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plans == nil {
		plans = []*models.PlanSummary{}
	}
	s.respondJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.db.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plan == nil {
		s.respondError(w, http.StatusNotFound, "plan not found")
		return
	}
	s.respondJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeletePlan(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCriticalPath(w http.ResponseWriter, r *http.Request) {
	plan, err := s.db.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if plan == nil {
		s.respondError(w, http.StatusNotFound, "plan not found")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"plan_id":       plan.ID,
		"critical_path": planner.CriticalPath(plan.Tasks),
	})
}

type statusRequest struct {
	Status models.TaskStatus `json:"status"`
}

func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		s.respondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	taskID := r.PathValue("id")
	err := s.db.UpdateTaskStatus(r.Context(), taskID, req.Status)
	if errors.Is(err, db.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.LogTaskStatus(taskID, string(req.Status))
	s.respondJSON(w, http.StatusOK, map[string]string{
		"task_id": taskID,
		"status":  string(req.Status),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, code int, msg string) {
	s.respondJSON(w, code, map[string]string{"error": msg})
}

// withCORS allows browser front ends served from other origins to call the
// API, mirroring the permissive policy of the UI's development setup.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.LogHTTP(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
