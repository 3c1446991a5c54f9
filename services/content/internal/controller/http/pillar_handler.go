package http

import (
	"net/http"
	"strconv"

	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/usecase"

	"github.com/gin-gonic/gin"
)

type CreatePillarRequest struct {
	ClientID       string   `json:"client_id" binding:"required"`
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	Color          string   `json:"color"`
	Channels       []string `json:"channels"`
	TargetAudience string   `json:"target_audience"`
}

// CreatePillar godoc
// @Summary      Create a content pillar
// @Tags         pillars
// @Accept       json
// @Produce      json
// @Param        request body CreatePillarRequest true "Pillar"
// @Success      201  {object}  entity.Pillar
// @Failure      400  {object}  map[string]string
// @Router       /pillars [post]
func (h *PipelineHandler) CreatePillar(c *gin.Context) {
	var req CreatePillarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pillar, err := h.pipeline.CreatePillar(c.Request.Context(), usecase.CreatePillarInput{
		ClientID:       req.ClientID,
		Name:           req.Name,
		Description:    req.Description,
		Color:          req.Color,
		Channels:       req.Channels,
		TargetAudience: req.TargetAudience,
	})
	if err != nil {
		h.respondError(c, "create pillar", err)
		return
	}

	c.JSON(http.StatusCreated, pillar)
}

// ListPillars godoc
// @Summary      List a client's pillars
// @Tags         pillars
// @Produce      json
// @Param        client_id query string true "Client ID"
// @Success      200  {array}   entity.Pillar
// @Failure      400  {object}  map[string]string
// @Router       /pillars [get]
func (h *PipelineHandler) ListPillars(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}

	pillars, err := h.pipeline.ListPillars(c.Request.Context(), clientID)
	if err != nil {
		h.respondError(c, "list pillars", err)
		return
	}
	if pillars == nil {
		pillars = []*entity.Pillar{}
	}

	c.JSON(http.StatusOK, pillars)
}

// PillarPerformance godoc
// @Summary      Pillar output over a window
// @Tags         pillars
// @Produce      json
// @Param        id path string true "Pillar ID"
// @Param        days query int false "Window in days" default(30)
// @Success      200  {object}  entity.PillarPerformance
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /pillars/{id}/performance [get]
func (h *PipelineHandler) PillarPerformance(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days"})
		return
	}

	perf, err := h.pipeline.PillarPerformance(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		h.respondError(c, "get pillar performance", err)
		return
	}

	c.JSON(http.StatusOK, perf)
}
