package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/service"
	"github.com/crm-content-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article and tag endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /v1/articles
func (h *ArticleHandler) List(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	list, err := h.services.Article.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, article)
}

// Create handles POST /v1/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var in models.CreateArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), &in, c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// Update handles PATCH and PUT /v1/articles/:id.
// An omitted or null "tags" leaves tags unchanged; [] clears them.
func (h *ArticleHandler) Update(c *gin.Context) {
	var in models.UpdateArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), c.Param("id"), &in, c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /v1/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), c.Param("id"), c.GetString(userIDKey)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Publish handles POST /v1/articles/:id/publish
func (h *ArticleHandler) Publish(c *gin.Context) {
	article, err := h.services.Article.Publish(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// TrackView handles POST /v1/articles/:id/views. The body is optional.
func (h *ArticleHandler) TrackView(c *gin.Context) {
	var event models.ViewEvent
	if err := c.ShouldBindJSON(&event); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := h.services.Article.TrackView(c.Request.Context(), c.Param("id"), &event); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}

// Analytics handles GET /v1/articles/:id/analytics?days=30
func (h *ArticleHandler) Analytics(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	rows, err := h.services.Article.Analytics(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article_id": c.Param("id"), "days": rows})
}

// BulkAction handles POST /v1/articles/bulk
func (h *ArticleHandler) BulkAction(c *gin.Context) {
	var req models.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if errs := validation.ValidateBulkRequest(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrValidation.Error(), "details": errs})
		return
	}

	result, err := h.services.Article.BulkAction(c.Request.Context(), req.IDs, req.Action, c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListTags handles GET /v1/tags
func (h *ArticleHandler) ListTags(c *gin.Context) {
	tags, err := h.services.Article.ListTags(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// bindFilter reads list filters from the query string. Tags may repeat or be comma separated.
func bindFilter(c *gin.Context) (*models.ArticleFilter, bool) {
	var filter models.ArticleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters: " + err.Error()})
		return nil, false
	}

	var tags []string
	for _, raw := range filter.Tags {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	filter.Tags = tags

	return &filter, true
}

// writeError maps service errors to HTTP responses
func (h *ArticleHandler) writeError(c *gin.Context, err error) {
	writeError(c, h.log, err)
}

func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var failure *service.ValidationFailure
	switch {
	case errors.As(err, &failure):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrValidation.Error(), "details": failure.Errors})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSlugExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyPublished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
