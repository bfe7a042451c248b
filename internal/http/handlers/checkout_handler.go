package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vintagestore/internal/log"
	"vintagestore/internal/services"
	"vintagestore/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

type checkoutRequest struct {
	Items   []services.CartLine `json:"items"`
	Contact services.Contact    `json:"contact"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Prepare(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request")
	}
	if len(req.Items) > 50 {
		log.Security(c, "validation.fail", map[string]any{"field": "items", "count": len(req.Items)})
		return fail(c, fiber.StatusBadRequest, "Too many items")
	}
	for i, l := range req.Items {
		sku, okSKU := validate.SKU(l.SKU)
		if !okSKU {
			log.Security(c, "validation.fail", map[string]any{"field": "sku"})
			return fail(c, fiber.StatusBadRequest, "Invalid item")
		}
		req.Items[i] = services.CartLine{SKU: sku, Qty: l.Qty}
	}
	contact := services.Contact{
		Name:  validate.Text(req.Contact.Name),
		Phone: validate.Text(req.Contact.Phone),
	}
	if e := strings.TrimSpace(req.Contact.Email); e != "" {
		email, okEmail := validate.Email(e)
		if !okEmail {
			return fail(c, fiber.StatusBadRequest, "Enter a valid email")
		}
		contact.Email = email
	}

	out, err := h.Checkout.Prepare(c.UserContext(), req.Items, contact)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return fail(c, fiber.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, services.ErrNothingOrderable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false, "message": "None of these items can be ordered", "data": out,
		})
	case errors.Is(err, services.ErrNoWhatsApp):
		log.Error(c, "checkout.fail", err, nil)
		return fail(c, fiber.StatusServiceUnavailable, "Ordering is not available right now")
	case err != nil:
		log.Error(c, "checkout.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, msgInternal)
	}
	log.Info(c, "checkout.prepare", map[string]any{
		"lines": len(out.Lines), "unavailable": len(out.Unavailable), "total": out.Total.StringFixed(2),
	})
	return ok(c, out)
}
