package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/db"
	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/sink"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// RunResponse is the trigger result contract shared by the HTTP server and the Lambda handler.
type RunResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	Timestamp string            `json:"timestamp"`
	Summary   *pipeline.Summary `json:"summary,omitempty"`
}

// NewRunResponse builds the response for a finished run.
func NewRunResponse(summary *pipeline.Summary, err error) RunResponse {
	resp := RunResponse{
		Success:   err == nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Summary:   summary,
	}
	if summary != nil {
		resp.RunID = summary.RunID
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Message = "News pipeline executed successfully"
	return resp
}

// RunDetail is a ledger run with its steps.
type RunDetail struct {
	Run   *db.Run      `json:"run"`
	Steps []db.RunStep `json:"steps"`
}

// decodeRunRequest reads the optional body. An empty body means defaults.
func decodeRunRequest(r *http.Request) (RunRequest, error) {
	var req RunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, &ErrValidation{Field: "body", Message: err.Error()}
		}
	}
	if req.Mode != "" {
		if _, err := sink.ParseWriteMode(req.Mode); err != nil {
			return req, err
		}
	}
	return req, nil
}

// handleRun executes the pipeline synchronously
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if !s.tryStart() {
		s.errorResponse(w, HTTPStatus(ErrRunInProgress), ErrRunInProgress.Error())
		return
	}
	defer s.finish()

	s.logger.Info("starting pipeline run", zap.String("mode", req.Mode))
	summary, err := s.run(r.Context(), req, nil)
	if err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, NewRunResponse(summary, err))
		return
	}

	s.jsonResponse(w, http.StatusOK, NewRunResponse(summary, nil))
}

// handleRunStream executes the pipeline and streams progress over SSE
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if !s.tryStart() {
		s.errorResponse(w, HTTPStatus(ErrRunInProgress), ErrRunInProgress.Error())
		return
	}
	defer s.finish()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			s.logger.Warn("failed to write SSE event", zap.Error(err))
		}
	}

	summary, err := s.run(r.Context(), req, onProgress)
	if err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		if writeErr := sse.WriteError(NewRunResponse(summary, err)); writeErr != nil {
			s.logger.Warn("failed to write SSE error", zap.Error(writeErr))
		}
		return
	}

	if err := sse.WriteComplete(NewRunResponse(summary, nil)); err != nil {
		s.logger.Warn("failed to write SSE completion", zap.Error(err))
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListRuns lists recent runs from the ledger
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns one run and its steps
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.logger.Error("failed to get run", zap.String("run_id", idStr), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		notFound := &ErrRunNotFound{RunID: idStr}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	steps, err := s.store.ListRunSteps(r.Context(), runID)
	if err != nil {
		s.logger.Error("failed to list run steps", zap.String("run_id", idStr), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list run steps")
		return
	}
	if steps == nil {
		steps = []db.RunStep{}
	}
	s.jsonResponse(w, http.StatusOK, RunDetail{Run: run, Steps: steps})
}
