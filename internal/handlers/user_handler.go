package handlers

import (
	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to fetch users")
	}
	return c.JSON(users)
}

// Me handles GET /me.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.userService.Profile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch profile")
	}
	return c.JSON(profile)
}

// ChangeUsername handles PUT /me/username.
func (h *UserHandler) ChangeUsername(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ChangeUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.userService.ChangeUsername(c.UserContext(), userID, req.Username); err != nil {
		return respondError(c, err, "Failed to change username")
	}
	return c.JSON(dto.MessageResponse{Message: "Username updated"})
}

// ChangeEmail handles PUT /me/email.
func (h *UserHandler) ChangeEmail(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ChangeEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.userService.ChangeEmail(c.UserContext(), userID, req.Email); err != nil {
		return respondError(c, err, "Failed to change email")
	}
	return c.JSON(dto.MessageResponse{Message: "Email updated"})
}

// ChangePassword handles PUT /me/password.
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.userService.ChangePassword(c.UserContext(), userID, req.Password); err != nil {
		return respondError(c, err, "Failed to change password")
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated"})
}
