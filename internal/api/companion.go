package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"companion-chat/backend/internal/catalog"
	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/service"
	"companion-chat/backend/pkg/middleware"
)

// CompanionHandler serves the catalog and per-profile companion customization
type CompanionHandler struct {
	service *service.CompanionService
}

// NewCompanionHandler creates the handler
func NewCompanionHandler(service *service.CompanionService) *CompanionHandler {
	return &CompanionHandler{service: service}
}

// ListCompanions handles GET /companions
func (h *CompanionHandler) ListCompanions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"companions": catalog.Companions(),
		"traits":     catalog.Traits(),
	})
}

// ListLanguages handles GET /languages
func (h *CompanionHandler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": catalog.Languages()})
}

// GetResolved handles GET /companions/:id/resolved
func (h *CompanionHandler) GetResolved(c *gin.Context) {
	resolved, err := h.service.ResolvedCompanion(c.Request.Context(), c.GetString(middleware.ProfileIDKey), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

// Customize handles PATCH /companions/:id/customization
func (h *CompanionHandler) Customize(c *gin.Context) {
	var patch models.CustomizationPatch
	if !bindJSON(c, &patch) {
		return
	}

	resolved, err := h.service.Customize(c.Request.Context(), c.GetString(middleware.ProfileIDKey), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}
