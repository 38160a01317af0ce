package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/service"
	"companion-chat/backend/pkg/middleware"
)

// SettingsHandler reads and writes the profile's chat settings
type SettingsHandler struct {
	service *service.CompanionService
}

// NewSettingsHandler creates the handler
func NewSettingsHandler(service *service.CompanionService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get handles GET /settings. Missing or unreadable settings come back as defaults.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetSettings(c.Request.Context(), c.GetString(middleware.ProfileIDKey)))
}

// Update handles PUT /settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var update models.SettingsUpdate
	if !bindJSON(c, &update) {
		return
	}

	next, err := h.service.UpdateSettings(c.Request.Context(), c.GetString(middleware.ProfileIDKey), update)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, next)
}

// Clear handles DELETE /settings
func (h *SettingsHandler) Clear(c *gin.Context) {
	if err := h.service.ClearSettings(c.Request.Context(), c.GetString(middleware.ProfileIDKey)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
