// Package handlers exposes the pipeline engine over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"service-orchestrator/internal/common/errors"
	"service-orchestrator/internal/common/logging"
	"service-orchestrator/internal/orchestrator"
)

// PipelineHandler serves pipeline execution requests.
type PipelineHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       logging.Logger
}

// NewPipelineHandler creates a handler around an orchestrator.
func NewPipelineHandler(orch *orchestrator.Orchestrator, logger logging.Logger) *PipelineHandler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &PipelineHandler{
		orchestrator: orch,
		logger:       logger,
	}
}

// executeRequest is the body of POST /pipelines/execute.
type executeRequest struct {
	Steps []*orchestrator.PipelineStep `json:"steps"`
	Merge *orchestrator.MergeConfig    `json:"merge,omitempty"`
	Input map[string]interface{}       `json:"input,omitempty"`
}

// Execute runs one pipeline and writes the merged value as the
// response body. Definition problems come back as 400 with an error
// object; step failures are already folded into the merged value.
func (h *PipelineHandler) Execute(w http.ResponseWriter, r *http.Request) {
	runID := uuid.New().String()
	w.Header().Set("X-Run-ID", runID)

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("rejected malformed pipeline request",
			logging.String("run_id", runID),
			logging.Err(err),
		)
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := context.WithValue(r.Context(), "run_id", runID) //nolint:staticcheck // string key matches the logger's context extraction

	result, err := h.orchestrator.Run(ctx, req.Steps, req.Merge, req.Input)
	if err != nil {
		status := http.StatusBadRequest
		if errors.GetType(err) == errors.ErrTypeInternal {
			status = http.StatusInternalServerError
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		logging.Error("failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
