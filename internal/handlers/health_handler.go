package handlers

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/services"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	store        repository.Store
	questService *services.QuestService
}

func NewHealthHandler(store repository.Store, questService *services.QuestService) *HealthHandler {
	return &HealthHandler{store: store, questService: questService}
}

// Check answers 200 while the store responds and 503 once it does not, so
// load balancers can drain an instance that lost its database.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()
	resp := dto.HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		DB:           "ok",
		CachedQuests: h.questService.CachedQuests(),
	}

	if err := h.store.Ping(ctx); err != nil {
		slog.Error("health check: store ping failed", "error", err)
		resp.Status = "degraded"
		resp.DB = "unhealthy"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	if games, err := h.questService.ListGames(ctx); err == nil {
		resp.Games = len(games)
	}
	return c.JSON(resp)
}
