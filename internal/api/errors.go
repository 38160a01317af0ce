package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"companion-chat/backend/internal/ai"
	"companion-chat/backend/internal/auth"
	"companion-chat/backend/internal/service"
	"companion-chat/backend/internal/settings"
	apperrors "companion-chat/backend/pkg/errors"
	"companion-chat/backend/pkg/resilience"
)

// fail records err for the error middleware and stops the chain
func fail(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
	c.Abort()
}

// toAppError maps domain errors onto the HTTP error envelope
func toAppError(err error) *apperrors.AppError {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return apperrors.NewError(http.StatusRequestEntityTooLarge, apperrors.CodeInvalidRequest, "Request body is too large").Wrap(err)

	case errors.Is(err, service.ErrValidation),
		errors.Is(err, ai.ErrInvalidInput):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, err.Error()).Wrap(err)
	case errors.Is(err, service.ErrCompanionNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, "Companion not found").Wrap(err)

	case errors.Is(err, settings.ErrStorageQuotaExceeded):
		return apperrors.NewInsufficientStorageError(apperrors.CodeStorageQuotaExceeded, "Nothing was saved").Wrap(err)
	case errors.Is(err, settings.ErrStorageUnavailable):
		return apperrors.NewError(http.StatusServiceUnavailable, apperrors.CodeStorageFailure, "Nothing was saved").Wrap(err)
	case errors.Is(err, settings.ErrSerialization):
		return apperrors.NewInternalServerError(apperrors.CodeStorageFailure, "Settings could not be saved").Wrap(err)

	case errors.Is(err, ai.ErrNoImage):
		return apperrors.NewBadGatewayError(apperrors.CodeGenerationFailed, "No image was generated. Please try again.").Wrap(err)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.NewError(http.StatusServiceUnavailable, apperrors.CodeGenerationFailed, "The companion is unavailable right now. Please try again later.").Wrap(err)
	case errors.Is(err, ai.ErrGeneration),
		errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewBadGatewayError(apperrors.CodeGenerationFailed, "Something went wrong. Please try again.").Wrap(err)

	case errors.Is(err, auth.ErrInvalidPhone):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "Phone number must be in international format, e.g. +14155550100").Wrap(err)
	case errors.Is(err, auth.ErrInvalidCode):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "The verification code is invalid or expired").Wrap(err)
	case errors.Is(err, auth.ErrAlreadySignedIn):
		return apperrors.NewError(http.StatusConflict, apperrors.CodeAlreadySignedIn, "Sign out before continuing as a guest").Wrap(err)
	case errors.Is(err, auth.ErrProvider):
		return apperrors.NewBadGatewayError(apperrors.CodeIdentityFailed, "Sign-in is unavailable right now. Please try again.").Wrap(err)
	case errors.Is(err, auth.ErrSessionNotReady),
		errors.Is(err, auth.ErrSessionClosed):
		return apperrors.NewError(http.StatusServiceUnavailable, apperrors.CodeInternal, "Service is not ready").Wrap(err)
	}

	return apperrors.FromError(err)
}

// bindJSON decodes the request body, answering 400 on malformed input
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			fail(c, err)
			return false
		}
		_ = c.Error(apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "Invalid request body").
			WithDetails(err.Error()).
			Wrap(err))
		c.Abort()
		return false
	}
	return true
}
