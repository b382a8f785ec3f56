package handlers

import (
	"github.com/ahmetcoskunkizilkaya/questlog/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/services"
	"github.com/gofiber/fiber/v2"
)

type QuestHandler struct {
	questService *services.QuestService
}

func NewQuestHandler(questService *services.QuestService) *QuestHandler {
	return &QuestHandler{questService: questService}
}

// ListGames handles GET /games.
func (h *QuestHandler) ListGames(c *fiber.Ctx) error {
	games, err := h.questService.ListGames(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to fetch games")
	}
	return c.JSON(games)
}

// ListGameQuests handles GET /games/:id/quests.
func (h *QuestHandler) ListGameQuests(c *fiber.Ctx) error {
	gameID, err := c.ParamsInt("id")
	if err != nil || gameID <= 0 {
		return badRequest(c, "Invalid game ID")
	}

	quests, err := h.questService.ListGameQuests(c.UserContext(), uint(gameID))
	if err != nil {
		return respondError(c, err, "Failed to fetch quests")
	}
	return c.JSON(quests)
}

// SearchQuests handles GET /quests/search?q=.
func (h *QuestHandler) SearchQuests(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return badRequest(c, "Query parameter q is required")
	}

	quests, err := h.questService.SearchQuests(c.UserContext(), query)
	if err != nil {
		return respondError(c, err, "Failed to search quests")
	}
	return c.JSON(quests)
}

// ListAvailable handles GET /me/quests/available.
func (h *QuestHandler) ListAvailable(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	quests, err := h.questService.ListAvailableQuests(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch available quests")
	}
	return c.JSON(quests)
}

// ListCompleted handles GET /me/quests/completed.
func (h *QuestHandler) ListCompleted(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.questService.ListCompletedQuests(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to fetch completed quests")
	}
	return c.JSON(resp)
}

// Complete handles POST /me/quests/:id/complete.
func (h *QuestHandler) Complete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	questID, err := c.ParamsInt("id")
	if err != nil || questID <= 0 {
		return badRequest(c, "Invalid quest ID")
	}

	result, err := h.questService.CompleteQuest(c.UserContext(), userID, uint(questID))
	if err != nil {
		return respondError(c, err, "Failed to complete quest")
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
