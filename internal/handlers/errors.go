package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/services"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP statuses. Anything unknown is a
// 500 and its details stay in the log.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
		message = capitalize(err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrQuestExpired):
		status = fiber.StatusConflict
		message = capitalize(err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		status = fiber.StatusUnauthorized
		message = capitalize(err.Error())
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidArgument):
		status = fiber.StatusBadRequest
		message = capitalize(strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "))
	default:
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err.Error())
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
