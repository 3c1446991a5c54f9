package http

import (
	"net/http"
	"time"

	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/repo/persistent"

	"github.com/gin-gonic/gin"
)

type RescheduleRequest struct {
	ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
}

type EngagementRequest struct {
	Metrics map[string]interface{} `json:"metrics" binding:"required"`
}

// ListDerivatives godoc
// @Summary      List derivatives
// @Tags         derivatives
// @Produce      json
// @Param        post_id query string false "Post ID"
// @Param        status query string false "Status" Enums(draft, approved, queued, dispatching, published, failed)
// @Param        type query string false "Type"
// @Success      200  {array}   entity.Derivative
// @Failure      400  {object}  map[string]string
// @Router       /derivatives [get]
func (h *PipelineHandler) ListDerivatives(c *gin.Context) {
	filter := persistent.DerivativeFilter{
		PostID: c.Query("post_id"),
		Status: entity.DerivativeStatus(c.Query("status")),
		Type:   entity.DerivativeType(c.Query("type")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
		return
	}

	items, err := h.pipeline.ListDerivatives(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list derivatives", err)
		return
	}

	c.JSON(http.StatusOK, nonNil(items))
}

// ApproveDerivative godoc
// @Summary      Approve a draft derivative
// @Tags         derivatives
// @Produce      json
// @Param        id path string true "Derivative ID"
// @Success      200  {object}  entity.Derivative
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /derivatives/{id}/approve [post]
func (h *PipelineHandler) ApproveDerivative(c *gin.Context) {
	d, err := h.pipeline.ApproveDerivative(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "approve derivative", err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// PublishDerivative godoc
// @Summary      Publish a queued derivative now
// @Description  A publisher failure is returned with 200 and success=false; the derivative is marked failed.
// @Tags         derivatives
// @Produce      json
// @Param        id path string true "Derivative ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /derivatives/{id}/publish [post]
func (h *PipelineHandler) PublishDerivative(c *gin.Context) {
	outcome, err := h.pipeline.PublishDerivative(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "publish derivative", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"derivative":    outcome.Derivative,
		"success":       outcome.Result.Success,
		"published_url": outcome.Result.PublishedURL,
		"message":       outcome.Result.Message,
	})
}

// RescheduleDerivative godoc
// @Summary      Requeue a failed derivative
// @Tags         derivatives
// @Accept       json
// @Produce      json
// @Param        id path string true "Derivative ID"
// @Param        request body RescheduleRequest true "New time"
// @Success      200  {object}  entity.Derivative
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /derivatives/{id}/reschedule [post]
func (h *PipelineHandler) RescheduleDerivative(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.pipeline.RescheduleDerivative(c.Request.Context(), c.Param("id"), req.ScheduledFor)
	if err != nil {
		h.respondError(c, "reschedule derivative", err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// RecordEngagement godoc
// @Summary      Merge engagement metrics
// @Tags         derivatives
// @Accept       json
// @Produce      json
// @Param        id path string true "Derivative ID"
// @Param        request body EngagementRequest true "Metrics"
// @Success      200  {object}  entity.Derivative
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /derivatives/{id}/engagement [put]
func (h *PipelineHandler) RecordEngagement(c *gin.Context) {
	var req EngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.pipeline.RecordEngagement(c.Request.Context(), c.Param("id"), req.Metrics)
	if err != nil {
		h.respondError(c, "record engagement", err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// PublishDue godoc
// @Summary      Publish every due derivative
// @Description  Same sweep the worker runs on its interval.
// @Tags         derivatives
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /publish/sweep [post]
func (h *PipelineHandler) PublishDue(c *gin.Context) {
	res, err := h.pipeline.PublishQueuedDerivatives(c.Request.Context(), time.Now())
	if err != nil {
		h.respondError(c, "publish due derivatives", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"published": len(res.Published),
		"failed":    len(res.Failed),
		"errors":    res.Errors,
	})
}
