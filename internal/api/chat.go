package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/service"
	"companion-chat/backend/pkg/middleware"
)

// ChatHandler runs the generation flows for the signed-in profile
type ChatHandler struct {
	service *service.CompanionService
}

// NewChatHandler creates the handler
func NewChatHandler(service *service.CompanionService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Dialogue handles POST /chat/dialogue
func (h *ChatHandler) Dialogue(c *gin.Context) {
	var req models.DialogueRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Chat(c.Request.Context(), c.GetString(middleware.ProfileIDKey), c.GetString(middleware.UserIDKey), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Image handles POST /chat/image
func (h *ChatHandler) Image(c *gin.Context) {
	var req models.ImageRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.GenerateImage(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Compliment handles POST /chat/compliment
func (h *ChatHandler) Compliment(c *gin.Context) {
	var req models.ComplimentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Compliment(c.Request.Context(), c.GetString(middleware.ProfileIDKey), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
