package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storyfeed-backend/internal/http/response"
	"github.com/yungbote/storyfeed-backend/internal/services"
)

type ViewHandler struct {
	views services.ViewService
}

func NewViewHandler(views services.ViewService) *ViewHandler {
	return &ViewHandler{views: views}
}

func deviceID(c *gin.Context, fromBody string) string {
	if v := strings.TrimSpace(fromBody); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Query("deviceId")); v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader(HeaderDeviceID))
}

// POST /api/views
// body: { deviceId, id, type: "story" | "info_card", timestamp? }
func (h *ViewHandler) Record(c *gin.Context) {
	var req struct {
		services.ViewInput
		DeviceID string `json:"deviceId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := h.views.Record(c.Request.Context(), deviceID(c, req.DeviceID), req.ViewInput)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"view": rec.ToFeed()})
}

// GET /api/views?deviceId=&limit=
func (h *ViewHandler) List(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	history, err := h.views.History(c.Request.Context(), deviceID(c, ""), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"viewHistory": history})
}

// DELETE /api/views?deviceId=
func (h *ViewHandler) Forget(c *gin.Context) {
	n, err := h.views.Forget(c.Request.Context(), deviceID(c, ""))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": n})
}
