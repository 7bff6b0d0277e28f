package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"stayscope/internal/model"
	"stayscope/internal/runs"
)

// defaultHistoryLimit bounds /api/runs responses when no limit is given.
const defaultHistoryLimit = 20

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "stayscope",
		"routes": []string{
			"GET /healthz",
			"GET /metrics",
			"GET /api/models",
			"POST /api/health/run",
			"POST /api/deep-dive/run",
			"POST /api/train/{model_id}",
			"GET /api/runs",
			"GET /api/runs/latest",
			"GET /api/artifacts/{model_id}",
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	specs := model.Registry()
	models := make([]Model, 0, len(specs))
	for _, spec := range specs {
		entry := Model{ID: spec.Kind, DisplayName: spec.DisplayName, Target: spec.Target}
		if kind, ok := runs.ParseKind(spec.Kind); ok {
			latest, err := s.store.LatestRun(r.Context(), kind)
			if err != nil {
				s.writeFailure(w, err)
				return
			}
			if latest != nil {
				run := FromRun(latest)
				entry.LatestRun = &run
			}
		}
		models = append(models, entry)
	}
	s.writeJSON(w, http.StatusOK, ModelListResponse{Models: models})
}

func (s *Server) handleHealthRun(w http.ResponseWriter, r *http.Request) {
	run, _, err := s.runner.RunHealth(r.Context())
	recordPipelineRun(string(runs.KindHealth), err)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: FromRun(run)})
}

func (s *Server) handleDeepDiveRun(w http.ResponseWriter, r *http.Request) {
	run, _, err := s.runner.RunDeepDive(r.Context())
	recordPipelineRun(string(runs.KindDeepDive), err)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: FromRun(run)})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["model_id"]
	spec, ok := model.Lookup(modelID)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", modelID))
		return
	}
	run, _, err := s.runner.Train(r.Context(), spec.Kind)
	recordPipelineRun(spec.Kind, err)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: FromRun(run)})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	rawKind := r.URL.Query().Get("kind")
	var kind runs.Kind
	if strings.TrimSpace(rawKind) != "" {
		parsed, ok := runs.ParseKind(rawKind)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", rawKind))
			return
		}
		kind = parsed
	}

	limit := defaultHistoryLimit
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", rawLimit))
			return
		}
		limit = parsed
	}

	history, err := s.store.RunsHistory(r.Context(), kind, limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunListResponse{Runs: FromRuns(history)})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	rawKind := r.URL.Query().Get("kind")
	kind, ok := runs.ParseKind(rawKind)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", rawKind))
		return
	}
	latest, err := s.store.LatestRun(r.Context(), kind)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if latest == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no ended %s runs", kind))
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: FromRun(latest)})
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["model_id"]
	kind, ok := runs.ParseKind(modelID)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", modelID))
		return
	}
	latest, err := s.store.LatestRun(r.Context(), kind)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if latest == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no ended %s runs", kind))
		return
	}
	rows, err := s.store.ListArtifacts(r.Context(), latest.ID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ArtifactListResponse{RunID: latest.ID, Artifacts: FromArtifacts(rows)})
}
