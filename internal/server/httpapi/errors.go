package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// statusFor maps the service error taxonomy to an HTTP status.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case common.IsAuthError(err):
		return fiber.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidFormat):
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, common.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	message := err.Error()
	hub := sentryfiber.GetHubFromContext(c)

	switch {
	case code >= fiber.StatusInternalServerError:
		s.logger.Error(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
		if hub != nil {
			hub.CaptureException(err)
		}
		if code == fiber.StatusServiceUnavailable {
			message = common.ErrStorageUnavailable.Error()
		} else {
			message = common.ErrInternal.Error()
		}
	case code == fiber.StatusUnauthorized:
		c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="users"`)
		if hub != nil {
			hub.AddBreadcrumb(&sentry.Breadcrumb{Category: "auth", Message: message, Level: sentry.LevelInfo}, nil)
		}
	}

	return c.Status(code).JSON(errorResponse{Error: true, Message: message})
}
