package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"companion-chat/backend/internal/auth"
	"companion-chat/backend/internal/models"
	"companion-chat/backend/pkg/middleware"
)

// AuthHandler serves guest and phone sign-in
type AuthHandler struct {
	session *auth.Session
}

// NewAuthHandler creates the handler
func NewAuthHandler(session *auth.Session) *AuthHandler {
	return &AuthHandler{session: session}
}

// SignInAsGuest handles POST /auth/guest. A guest that already holds a token keeps its
// profile; a phone user gets 409.
func (h *AuthHandler) SignInAsGuest(c *gin.Context) {
	resp, err := h.session.SignInAsGuest(c.Request.Context(), c.GetString(middleware.ProfileIDKey), c.GetString(middleware.UserIDKey))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartPhoneSignIn handles POST /auth/phone/start
func (h *AuthHandler) StartPhoneSignIn(c *gin.Context) {
	var req models.PhoneStartRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.session.StartPhoneSignIn(c.Request.Context(), req.PhoneNumber, req.RecaptchaToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PhoneStartResponse{VerificationID: id})
}

// ConfirmPhoneSignIn handles POST /auth/phone/confirm. A guest upgrading keeps its settings.
func (h *AuthHandler) ConfirmPhoneSignIn(c *gin.Context) {
	var req models.PhoneConfirmRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.session.ConfirmPhoneSignIn(c.Request.Context(), c.GetString(middleware.ProfileIDKey), req.VerificationID, req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SignOut handles POST /auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.session.SignOut(c.Request.Context(), c.GetString(middleware.ProfileIDKey)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, _ := middleware.Claims(c)

	guest, err := h.session.IsGuest(c.Request.Context(), claims.ProfileID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Identity{
		ProfileID: claims.ProfileID,
		UserID:    claims.UserID,
		Guest:     guest,
	})
}
