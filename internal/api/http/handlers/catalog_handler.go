package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/api/dto"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/service"
)

// CatalogHandler serves the public request-form catalog.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// AreaCatalog GET /catalog/areas. Lists areas that currently accept
// tickets, each with its active categories.
func (h *CatalogHandler) AreaCatalog(c *fiber.Ctx) error {
	entries, err := h.service.AreaCatalog(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CatalogAreaResponse, 0, len(entries))
	for _, entry := range entries {
		item := dto.CatalogAreaResponse{ID: entry.ID, Name: entry.Name}
		for i := range entry.Categories {
			item.Categories = append(item.Categories, dto.CategoryResponseFrom(&entry.Categories[i]))
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}
