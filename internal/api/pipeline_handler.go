package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dinesh-raya/news-intel/internal/usecase"
)

// PipelineHandler exposes the trigger surface over HTTP.
type PipelineHandler struct {
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// NewPipelineHandler wires the pipeline behind HTTP endpoints.
func NewPipelineHandler(pipeline *usecase.Pipeline, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline, logger: logger}
}

// Register attaches the routes to the engine.
func (h *PipelineHandler) Register(r *gin.Engine) {
	r.GET("/", h.Root)
	r.POST("/api/v1/trigger-pipeline", h.Trigger)
}

// Root reports readiness.
func (h *PipelineHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "News Discourse Intelligence System Ready"})
}

// Trigger starts one pipeline run in the background and returns immediately.
// Overlapping runs are not locked; the store's insert-if-absent and
// narrative-upsert keys are the only guards.
func (h *PipelineHandler) Trigger(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if _, err := h.pipeline.Run(ctx, time.Now()); err != nil {
			h.logger.Error("pipeline run failed", "error", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{"status": "Pipeline triggered in background"})
}
