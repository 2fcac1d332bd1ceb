package handlers

import (
	"errors"

	"smarterd/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// statusFor maps a rejection kind to its HTTP status.
func statusFor(e *apperrors.Error) int {
	switch e.Kind {
	case apperrors.KindNotFound:
		if e.Field != "" {
			return fiber.StatusBadRequest
		}
		return fiber.StatusNotFound
	case apperrors.KindQuotaExceeded, apperrors.KindPositionHole, apperrors.KindValidation:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Internal failures are logged
// and hidden behind a generic message.
func respondError(c *fiber.Ctx, message string, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindUnexpectedState {
		log.WithFields(log.Fields{"method": c.Method(), "path": c.Path()}).Errorf("%s: %v", message, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   "Internal server error",
		})
	}

	body := fiber.Map{
		"message": message,
		"kind":    appErr.Kind,
		"detail":  appErr.Detail,
	}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	if len(appErr.Violations) > 0 {
		body["errors"] = appErr.Violations
	}
	return c.Status(statusFor(appErr)).JSON(body)
}

// invalidBody answers a request whose body could not be decoded.
func invalidBody(c *fiber.Ctx, err error) error {
	log.Debugf("Error parsing request body: %v", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
