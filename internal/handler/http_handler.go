package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/history"
	"github.com/RiceCakess/holoclips/pkg/response"
)

type HTTPHandler struct {
	history history.Service
}

func NewHTTPHandler(hist history.Service) *HTTPHandler {
	return &HTTPHandler{history: hist}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/videos/:video_id/langs/:lang/messages", h.GetMessages)
	}

	r.GET("/health", h.HealthCheck)
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "no such route")
	})
}

func (h *HTTPHandler) GetMessages(c *gin.Context) {
	videoID := c.Param("video_id")
	lang := c.Param("lang")

	if videoID == "" || lang == "" {
		response.BadRequest(c, "video_id and lang are required")
		return
	}

	cursor := c.Query("cursor")

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	room := domain.Room{VideoID: videoID, Lang: lang}
	page, err := h.history.GetPage(c.Request.Context(), room, cursor, limit)
	if err != nil {
		response.InternalError(c, "failed to get message history")
		return
	}

	response.Success(c, page)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
