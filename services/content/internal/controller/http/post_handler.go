package http

import (
	"net/http"

	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/repo/persistent"
	"content-engine/services/content/internal/schedule"
	"content-engine/services/content/internal/usecase"

	"github.com/gin-gonic/gin"
)

type CreatePostRequest struct {
	ClientID            string `json:"client_id" binding:"required"`
	RawIdea             string `json:"raw_idea" binding:"required"`
	PillarID            string `json:"pillar_id"`
	IncludeCTA          bool   `json:"include_cta"`
	AutoExpand          bool   `json:"auto_expand"`
	TimeInvestedMinutes int    `json:"time_invested_minutes" binding:"gte=0"`
}

type FanOutRequest struct {
	Platforms      []string `json:"platforms"`
	IncludePodcast bool     `json:"include_podcast"`
}

func createResponse(res *usecase.CreateResult) gin.H {
	body := gin.H{
		"post":    res.Post,
		"outcome": res.Outcome,
	}
	if res.ExpandErr != nil {
		body["expand_error"] = res.ExpandErr.Error()
	}
	return body
}

// CreatePost godoc
// @Summary      Create a post from a raw idea
// @Description  Stores the idea and, with auto_expand, asks the generator for a center post. A failed expansion still returns 201 with outcome expand_failed.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request body CreatePostRequest true "New post"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /posts [post]
func (h *PipelineHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.pipeline.CreatePost(c.Request.Context(), usecase.CreatePostInput{
		ClientID:            req.ClientID,
		RawIdea:             req.RawIdea,
		PillarID:            req.PillarID,
		IncludeCTA:          req.IncludeCTA,
		AutoExpand:          req.AutoExpand,
		TimeInvestedMinutes: req.TimeInvestedMinutes,
	})
	if err != nil {
		h.respondError(c, "create post", err)
		return
	}

	c.JSON(http.StatusCreated, createResponse(res))
}

// ListPosts godoc
// @Summary      List posts
// @Description  Newest first, optionally filtered by client, status or pillar
// @Tags         posts
// @Produce      json
// @Param        client_id query string false "Client ID"
// @Param        status query string false "Post status" Enums(idea, drafted, branched, approved, failed)
// @Param        pillar_id query string false "Pillar ID"
// @Success      200  {array}   entity.Post
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /posts [get]
func (h *PipelineHandler) ListPosts(c *gin.Context) {
	filter := persistent.PostFilter{
		ClientID: c.Query("client_id"),
		Status:   entity.PostStatus(c.Query("status")),
		PillarID: c.Query("pillar_id"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	posts, err := h.pipeline.ListPosts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list posts", err)
		return
	}
	if posts == nil {
		posts = []*entity.Post{}
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost godoc
// @Summary      Get post by ID
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PipelineHandler) GetPost(c *gin.Context) {
	post, err := h.pipeline.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get post", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary      Delete a post
// @Description  Admin cleanup. Derivatives of the post are kept.
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [delete]
func (h *PipelineHandler) DeletePost(c *gin.Context) {
	if err := h.pipeline.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "delete post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// ExpandPost godoc
// @Summary      Retry expansion of an idea
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /posts/{id}/expand [post]
func (h *PipelineHandler) ExpandPost(c *gin.Context) {
	res, err := h.pipeline.ExpandPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "expand post", err)
		return
	}

	c.JSON(http.StatusOK, createResponse(res))
}

// BranchPost godoc
// @Summary      Generate archive and blog versions
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /posts/{id}/branch [post]
func (h *PipelineHandler) BranchPost(c *gin.Context) {
	post, err := h.pipeline.BranchPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "branch post", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// FanOut godoc
// @Summary      Generate platform derivatives
// @Description  Partial success is normal: platforms that failed are listed under failures.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id path string true "Post ID"
// @Param        request body FanOutRequest false "Platforms in processing order"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /posts/{id}/fanout [post]
func (h *PipelineHandler) FanOut(c *gin.Context) {
	var req FanOutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	in := usecase.FanOutInput{IncludePodcast: req.IncludePodcast}
	for _, p := range req.Platforms {
		in.Platforms = append(in.Platforms, entity.DerivativeType(p))
	}

	res, err := h.pipeline.FanOut(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, "fan out post", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"created":            res.Created,
		"failures":           res.Failures,
		"skipped":            res.Skipped,
		"newsletter_skipped": res.NewsletterSkipped,
	})
}

// SchedulePost godoc
// @Summary      Schedule approved derivatives
// @Description  Newsletter and telegram use their explicit times; the rest are staggered from social_start_at (or newsletter_send_at).
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id path string true "Post ID"
// @Param        request body schedule.Config true "Schedule"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id}/schedule [post]
func (h *PipelineHandler) SchedulePost(c *gin.Context) {
	var cfg schedule.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.pipeline.ScheduleDerivatives(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		h.respondError(c, "schedule post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queued":      nonNil(res.Queued),
		"unscheduled": nonNil(res.Unscheduled),
	})
}

func nonNil(items []*entity.Derivative) []*entity.Derivative {
	if items == nil {
		return []*entity.Derivative{}
	}
	return items
}
