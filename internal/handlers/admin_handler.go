package handlers

import (
	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	questService *services.QuestService
	catalogPath  string
}

func NewAdminHandler(questService *services.QuestService, catalogPath string) *AdminHandler {
	return &AdminHandler{questService: questService, catalogPath: catalogPath}
}

// ReloadCatalog handles POST /admin/catalog/reload.
func (h *AdminHandler) ReloadCatalog(c *fiber.Ctx) error {
	if err := h.questService.ReloadCatalog(c.UserContext(), h.catalogPath); err != nil {
		return respondError(c, err, "Failed to reload catalog")
	}
	return c.JSON(dto.MessageResponse{Message: "Catalog reloaded"})
}
