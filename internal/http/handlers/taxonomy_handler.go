package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "vintagestore/internal/log"
	"vintagestore/internal/repos"
	"vintagestore/internal/services"
	"vintagestore/internal/validate"
)

// TaxonomyHandler edits categories, brands and sizes from the back office.
type TaxonomyHandler struct {
	Taxonomy *services.TaxonomyService
}

type taxonomyRequest struct {
	Nombre  string `json:"nombre" form:"nombre"`
	Prefijo string `json:"prefijo" form:"prefijo"`
}

func (h *TaxonomyHandler) CreateCategory(c *fiber.Ctx) error {
	return h.create(c, "category", func(ctx context.Context, r taxonomyRequest) (int64, error) {
		return h.Taxonomy.CreateCategory(ctx, r.Nombre, r.Prefijo)
	})
}

func (h *TaxonomyHandler) UpdateCategory(c *fiber.Ctx) error {
	return h.update(c, "category", func(ctx context.Context, id int64, r taxonomyRequest) (bool, error) {
		return h.Taxonomy.UpdateCategory(ctx, id, r.Nombre, r.Prefijo)
	})
}

func (h *TaxonomyHandler) DeleteCategory(c *fiber.Ctx) error {
	return h.delete(c, "category", h.Taxonomy.DeleteCategory)
}

func (h *TaxonomyHandler) CreateBrand(c *fiber.Ctx) error {
	return h.create(c, "brand", func(ctx context.Context, r taxonomyRequest) (int64, error) {
		return h.Taxonomy.CreateBrand(ctx, r.Nombre)
	})
}

func (h *TaxonomyHandler) UpdateBrand(c *fiber.Ctx) error {
	return h.update(c, "brand", func(ctx context.Context, id int64, r taxonomyRequest) (bool, error) {
		return h.Taxonomy.UpdateBrand(ctx, id, r.Nombre)
	})
}

func (h *TaxonomyHandler) DeleteBrand(c *fiber.Ctx) error {
	return h.delete(c, "brand", h.Taxonomy.DeleteBrand)
}

func (h *TaxonomyHandler) CreateSize(c *fiber.Ctx) error {
	return h.create(c, "size", func(ctx context.Context, r taxonomyRequest) (int64, error) {
		return h.Taxonomy.CreateSize(ctx, r.Nombre)
	})
}

func (h *TaxonomyHandler) UpdateSize(c *fiber.Ctx) error {
	return h.update(c, "size", func(ctx context.Context, id int64, r taxonomyRequest) (bool, error) {
		return h.Taxonomy.UpdateSize(ctx, id, r.Nombre)
	})
}

func (h *TaxonomyHandler) DeleteSize(c *fiber.Ctx) error {
	return h.delete(c, "size", h.Taxonomy.DeleteSize)
}

func (h *TaxonomyHandler) create(c *fiber.Ctx, kind string, fn func(context.Context, taxonomyRequest) (int64, error)) error {
	var req taxonomyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request")
	}
	id, err := fn(c.UserContext(), req)
	if err != nil {
		return taxonomyFail(c, "admin."+kind+".create.fail", err, nil)
	}
	applog.Audit(c, "admin."+kind+".create", map[string]any{"id": id, "nombre": req.Nombre})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{"id": id}})
}

func (h *TaxonomyHandler) update(c *fiber.Ctx, kind string, fn func(context.Context, int64, taxonomyRequest) (bool, error)) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	var req taxonomyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request")
	}
	found, err := fn(c.UserContext(), id, req)
	if err != nil {
		return taxonomyFail(c, "admin."+kind+".update.fail", err, map[string]any{"id": id})
	}
	if !found {
		return fail(c, fiber.StatusNotFound, kind+" not found")
	}
	applog.Audit(c, "admin."+kind+".update", map[string]any{"id": id, "nombre": req.Nombre})
	return ok(c, fiber.Map{"id": id})
}

func (h *TaxonomyHandler) delete(c *fiber.Ctx, kind string, fn func(context.Context, int64) (bool, error)) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	found, err := fn(c.UserContext(), id)
	if err != nil {
		return taxonomyFail(c, "admin."+kind+".delete.fail", err, map[string]any{"id": id})
	}
	if !found {
		return fail(c, fiber.StatusNotFound, kind+" not found")
	}
	applog.Audit(c, "admin."+kind+".delete", map[string]any{"id": id})
	return ok(c, fiber.Map{"id": id})
}

func taxonomyFail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	if errors.Is(err, repos.ErrInUse) {
		return fail(c, fiber.StatusConflict, "Still used by at least one garment")
	}
	return failMutation(c, action, err, fields)
}
