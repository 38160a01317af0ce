package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"companion-chat/backend/pkg/errors"
	"companion-chat/backend/pkg/jwt"
	"companion-chat/backend/pkg/logger"
)

// Gin context keys set by the auth middlewares
const (
	ClaimsKey    = "claims"
	ProfileIDKey = "profileId"
	UserIDKey    = "userId"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Authenticate(token string) (*jwt.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the claims
func RequireAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Error(errors.NewUnauthorizedError(errors.CodeAuthRequired, "Authorization header is required"))
			c.Abort()
			return
		}

		claims, err := v.Authenticate(token)
		if err != nil {
			logger.FromGin(c).Warn("Invalid bearer token", "error", err.Error())
			c.Error(errors.NewUnauthorizedError(errors.CodeInvalidToken, "Invalid or expired token").Wrap(err))
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth stores the claims of a valid bearer token and ignores anything else.
// Sign-in endpoints use it to keep the caller's existing profile.
func OptionalAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := v.Authenticate(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// Claims returns the claims stored by the auth middlewares
func Claims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ClaimsKey, claims)
	c.Set(ProfileIDKey, claims.ProfileID)
	c.Set(UserIDKey, claims.UserID)
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
