package serverutils

import (
	"errors"

	"ai-companion-be/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors bubbling out of handlers to
// HTTP responses so handlers can just return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		var validationErrs validator.ValidationErrors
		var fiberErr *fiber.Error

		switch {
		case errors.Is(err, apperror.ErrUnauthorized):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		case errors.Is(err, apperror.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
		case errors.Is(err, apperror.ErrChatNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
		case errors.Is(err, apperror.ErrDuplicateChat):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		case errors.Is(err, apperror.ErrLockTimeout):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		case errors.As(err, &validationErrs):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": validationErrs.Error()})
		case errors.As(err, &fiberErr):
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
		}
	}
}
