package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"vintagestore/internal/log"
	"vintagestore/internal/services"
	"vintagestore/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/v1/availability?sku=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("sku"))
	if raw == "" {
		return fail(c, fiber.StatusBadRequest, "missing sku")
	}
	sku, okSKU := validate.SKU(raw)
	if !okSKU {
		log.Security(c, "validation.fail", map[string]any{"field": "sku"})
		return fail(c, fiber.StatusBadRequest, "enter a valid sku")
	}

	avail, err := h.Inv.CheckAvailability(c.UserContext(), sku)
	if err != nil {
		log.Error(c, "availability.fail", err, map[string]any{"sku": sku})
		return fail(c, fiber.StatusInternalServerError, msgInternal)
	}
	return c.JSON(avail)
}
