package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"blackbook-pipeline/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RunHandler handles HTTP requests for pipeline runs
type RunHandler struct {
	pipeline *service.PipelineService
}

// NewRunHandler creates a new run handler
func NewRunHandler(pipeline *service.PipelineService) *RunHandler {
	return &RunHandler{pipeline: pipeline}
}

// StartRun handles POST /api/runs
func (h *RunHandler) StartRun(c *gin.Context) {
	// Create run (synchronous, fast)
	result, err := h.pipeline.StartRun(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		code := "RUN_CREATION_FAILED"
		if errors.Is(err, service.ErrNoDocuments) {
			status = http.StatusConflict
			code = "NO_DOCUMENTS"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.pipeline.ProcessRun(bgCtx, result.RunID); err != nil {
			log.Printf("Pipeline run %s failed: %v", result.RunID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"run_id":  result.RunID,
			"status":  "pending",
			"message": "Pipeline run created. Poll /api/runs/:id for updates.",
		},
	})
}

// GetRun handles GET /api/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid run ID format",
			},
		})
		return
	}

	run, err := h.pipeline.GetRunStatus(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Pipeline run not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    run,
	})
}
