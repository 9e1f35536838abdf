package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storyfeed-backend/internal/http/response"
	"github.com/yungbote/storyfeed-backend/internal/services"
)

const HeaderDeviceID = "X-Device-Id"

type FeedHandler struct {
	feed services.FeedService
}

func NewFeedHandler(feed services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// POST /api/feed
// body: { targetLanguage, level, viewHistory, firstVisit, page, pageSize, deviceId? }
func (h *FeedHandler) GetFeed(c *gin.Context) {
	var req services.FeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = strings.TrimSpace(c.GetHeader(HeaderDeviceID))
	}

	page, err := h.feed.GetFeed(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	response.RespondOK(c, page)
}
