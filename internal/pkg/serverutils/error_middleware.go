package serverutils

import (
	"errors"

	"ai-assistant-be/internal/constant"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors to HTTP status codes so
// controllers can just return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, constant.ErrSessionNotFound),
			errors.Is(err, constant.ErrMessageNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, constant.ErrInvalidTitle):
			status = fiber.StatusBadRequest
		case errors.Is(err, constant.ErrNoActiveSession):
			status = fiber.StatusConflict
		case errors.Is(err, constant.ErrGenerationFailed):
			status = fiber.StatusBadGateway
		case errors.Is(err, constant.ErrInvalidCredentials),
			errors.Is(err, constant.ErrInvalidToken):
			status = fiber.StatusUnauthorized
		case errors.Is(err, constant.ErrEmailAlreadyExists):
			status = fiber.StatusConflict
		}

		return ctx.Status(status).JSON(ErrorResponse(err.Error()))
	}
}
