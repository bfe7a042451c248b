package handlers

import (
	"strings"

	"vintagestore/internal/domain"
	"vintagestore/internal/log"
	"vintagestore/internal/services"
	"vintagestore/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const msgGone = "This item is no longer available"

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, field, okFilter := parseFilter(c)
	if !okFilter {
		log.Security(c, "validation.fail", map[string]any{"field": field})
		return fail(c, fiber.StatusBadRequest, "Invalid filter: "+field)
	}
	products, err := h.Catalog.PublicProducts(c.UserContext())
	if err != nil {
		// reads degrade to an empty catalog
		log.Error(c, "catalog.list.fail", err, nil)
		products = nil
	}
	out := services.FilterProducts(products, f)
	return c.JSON(fiber.Map{"success": true, "data": out, "count": len(out)})
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, fiber.StatusNotFound, msgGone)
	}
	p, err := h.Catalog.ProductByID(c.UserContext(), id)
	return h.one(c, p, err)
}

// GET /api/v1/products/sku/:sku
func (h *ProductHandler) BySKU(c *fiber.Ctx) error {
	sku, okSKU := validate.SKU(c.Params("sku"))
	if !okSKU {
		log.Security(c, "validation.fail", map[string]any{"field": "sku"})
		return fail(c, fiber.StatusNotFound, msgGone)
	}
	p, err := h.Catalog.ProductBySKU(c.UserContext(), sku)
	return h.one(c, p, err)
}

func (h *ProductHandler) one(c *fiber.Ctx, p *domain.Prenda, err error) error {
	if err != nil {
		log.Error(c, "catalog.product.fail", err, nil)
		return fail(c, fiber.StatusNotFound, msgGone)
	}
	// hidden garments are back-office only
	if p == nil || !p.Visible() {
		return fail(c, fiber.StatusNotFound, msgGone)
	}
	return ok(c, p)
}

// parseFilter reads the storefront query string. On failure it names the field.
func parseFilter(c *fiber.Ctx) (services.Filter, string, bool) {
	var f services.Filter
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		q, okQ := validate.Q(raw)
		if !okQ {
			return f, "q", false
		}
		f.Q = q
	}
	ids := []struct {
		name string
		dst  *int64
	}{{"category", &f.CategoriaID}, {"brand", &f.MarcaID}, {"size", &f.TallaID}}
	for _, p := range ids {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		id, okID := validate.ID(raw)
		if !okID {
			return f, p.name, false
		}
		*p.dst = id
	}
	if raw := strings.TrimSpace(c.Query("drop")); raw != "" {
		f.Drop = validate.Text(raw)
	}
	for name, dst := range map[string]*decimal.NullDecimal{"min": &f.Min, "max": &f.Max} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		d, okPrice := validate.Price(raw)
		if !okPrice {
			return f, name, false
		}
		*dst = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	f.Available = c.QueryBool("available", false)
	switch s := c.Query("sort", services.SortNewest); s {
	case services.SortNewest, services.SortPriceAsc, services.SortPriceDesc, services.SortName:
		f.Sort = s
	default:
		return f, "sort", false
	}
	return f, "", true
}
