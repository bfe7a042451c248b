package handlers

import (
	"vintagestore/internal/log"
	"vintagestore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler serves the taxonomy lists the storefront filters by.
type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.categories.fail", err, nil)
		return ok(c, []any{})
	}
	return ok(c, cats)
}

func (h *CategoryHandler) Brands(c *fiber.Ctx) error {
	brands, err := h.Catalog.Brands(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.brands.fail", err, nil)
		return ok(c, []any{})
	}
	return ok(c, brands)
}

func (h *CategoryHandler) Sizes(c *fiber.Ctx) error {
	sizes, err := h.Catalog.Sizes(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.sizes.fail", err, nil)
		return ok(c, []any{})
	}
	return ok(c, sizes)
}
