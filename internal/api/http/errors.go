package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/screens"
)

// statusFor maps an AppError kind onto an HTTP status.
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindLocationMaxExceeded, apperror.KindLocationAlreadyExists:
		return fiber.StatusConflict
	case apperror.KindPermissionDenied, apperror.KindPermissionPermanentlyDenied:
		return fiber.StatusForbidden
	case apperror.KindLocationDataNull:
		return fiber.StatusNotFound
	case apperror.KindNetwork, apperror.KindWeatherLoadFailed, apperror.KindForecastLoadFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every handler error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":   true,
			"message": fe.Message,
		})
	}

	switch {
	case errors.Is(err, screens.ErrUnknownScreen), errors.Is(err, screens.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": err.Error()})
	case errors.Is(err, screens.ErrUnknownIntent), errors.Is(err, screens.ErrInvalidPayload):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": err.Error()})
	}

	ae := apperror.From(err)
	body := fiber.Map{
		"error":   true,
		"kind":    ae.Kind,
		"message": ae.Error(),
	}
	if ae.Code != nil {
		body["code"] = *ae.Code
	}
	return c.Status(statusFor(ae.Kind)).JSON(body)
}
