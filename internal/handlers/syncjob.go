package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	syncpkg "github.com/rotabull/supportsync/internal/sync"
)

// SyncRunner is the orchestrator surface the handler needs.
type SyncRunner interface {
	Run(ctx context.Context) syncpkg.Result
}

type SyncJobHandler struct {
	log    *logger.Logger
	runner SyncRunner
}

func NewSyncJobHandler(baseLog *logger.Logger, runner SyncRunner) *SyncJobHandler {
	return &SyncJobHandler{
		log:    baseLog.With("handler", "SyncJobHandler"),
		runner: runner,
	}
}

type manualJobResponse struct {
	Message string         `json:"message"`
	Result  syncpkg.Result `json:"result"`
}

// GET /triggerManualJob
//
// Runs a full sync inline. The run can take a long time, so the response is
// chunked with heartbeat newlines. Partial failures are reported in the
// body, not collapsed into a generic error.
func (h *SyncJobHandler) TriggerManualJob(c *gin.Context) {
	hb := startHeartbeat(c, heartbeatInterval)

	res := h.runner.Run(c.Request.Context())
	switch res.State {
	case syncpkg.StateSuccess:
		hb.Finish(manualJobResponse{Message: "Manual job triggered successfully", Result: res})
	case syncpkg.StatePartialFailure:
		hb.Finish(manualJobResponse{Message: "Manual job finished with partial failures", Result: res})
	default:
		h.log.Error("Manual sync job failed", "run_id", res.RunID, "failed_steps", res.FailedSteps)
		hb.Finish(ErrorEnvelope{Error: APIError{Message: "An error occurred while triggering the manual job"}})
	}
}
