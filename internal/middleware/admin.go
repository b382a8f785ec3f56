package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/config"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired lets a request through when any of these hold:
// 1. the X-Admin-Token header matches ADMIN_TOKEN
// 2. the JWT email is listed in ADMIN_EMAILS
// 3. the stored user has the admin role
func AdminRequired(store repository.Store, cfg *config.Config) fiber.Handler {
	adminEmails := trimAll(cfg.AdminEmails)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		claims, err := getClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		email, _ := claims["email"].(string)
		if contains(adminEmails, strings.ToLower(email)) {
			return c.Next()
		}

		if userID, err := GetUserID(c); err == nil {
			user, err := store.FindUserByID(c.UserContext(), userID)
			if err == nil && user.Role == models.RoleAdmin {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func trimAll(list []string) []string {
	result := make([]string, 0, len(list))
	for _, p := range list {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
