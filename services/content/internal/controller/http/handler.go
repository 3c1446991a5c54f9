package http

import (
	"errors"
	"net/http"

	"content-engine/pkg/logger"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PipelineHandler struct {
	pipeline usecase.PipelineUseCase
	logger   *logger.Logger
}

func NewPipelineHandler(pipeline usecase.PipelineUseCase, logger *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Register mounts every pipeline route on the group.
func (h *PipelineHandler) Register(api *gin.RouterGroup) {
	api.POST("/posts", h.CreatePost)
	api.GET("/posts", h.ListPosts)
	api.GET("/posts/:id", h.GetPost)
	api.DELETE("/posts/:id", h.DeletePost)
	api.POST("/posts/:id/expand", h.ExpandPost)
	api.POST("/posts/:id/branch", h.BranchPost)
	api.POST("/posts/:id/fanout", h.FanOut)
	api.POST("/posts/:id/schedule", h.SchedulePost)

	api.GET("/derivatives", h.ListDerivatives)
	api.POST("/derivatives/:id/approve", h.ApproveDerivative)
	api.POST("/derivatives/:id/publish", h.PublishDerivative)
	api.POST("/derivatives/:id/reschedule", h.RescheduleDerivative)
	api.PUT("/derivatives/:id/engagement", h.RecordEngagement)
	api.POST("/publish/sweep", h.PublishDue)

	api.POST("/pillars", h.CreatePillar)
	api.GET("/pillars", h.ListPillars)
	api.GET("/pillars/:id/performance", h.PillarPerformance)
}

// respondError maps pipeline errors onto status codes. Unexpected errors are
// logged and reported as 500.
func (h *PipelineHandler) respondError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrGeneration):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
