package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vintagestore/internal/cache"
	"vintagestore/internal/domain"
	applog "vintagestore/internal/log"
	"vintagestore/internal/services"
	"vintagestore/internal/upload"
	"vintagestore/internal/validate"
)

const maxFilesPerKind = 12

type AdminHandler struct {
	Catalog  *services.CatalogService
	Products *services.ProductService
	Cache    cache.Cache
}

// GET /admin/products lists every garment, hidden ones included.
func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	all, err := h.Catalog.Products(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load products")
	}
	return c.JSON(fiber.Map{"success": true, "data": all, "count": len(all)})
}

// GET /admin/products/:id
func (h *AdminHandler) Product(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	p, err := h.Catalog.ProductByID(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "admin.products.get.fail", err, map[string]any{"id": id})
		return fail(c, fiber.StatusInternalServerError, msgInternal)
	}
	if p == nil {
		return fail(c, fiber.StatusNotFound, services.ErrProductNotFound.Error())
	}
	return ok(c, p)
}

// POST /admin/products (multipart)
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	sub, closeFiles, err := readSubmission(c)
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"action": "admin.product.create", "reason": err.Error()})
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	defer closeFiles()

	saved, err := h.Products.Create(c.UserContext(), sub)
	if err != nil {
		return failMutation(c, "admin.product.create.fail", err, map[string]any{"sku": sub.Input.SKU})
	}
	applog.Audit(c, "admin.product.create", map[string]any{
		"id": saved.ID, "sku": saved.SKU, "images": len(sub.Color), "images_bw": len(sub.BW),
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{"id": saved.ID, "sku": saved.SKU}})
}

// PUT or POST /admin/products/:id (multipart)
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	sub, closeFiles, err := readSubmission(c)
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"action": "admin.product.update", "reason": err.Error()})
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	defer closeFiles()

	saved, err := h.Products.Update(c.UserContext(), id, sub)
	if err != nil {
		return failMutation(c, "admin.product.update.fail", err, map[string]any{"id": id})
	}
	applog.Audit(c, "admin.product.update", map[string]any{
		"id": id, "sku": saved.SKU,
		"replace_imagenes": sub.ReplaceColor, "replace_imagenes_bw": sub.ReplaceBW,
	})
	return ok(c, fiber.Map{"id": id, "sku": saved.SKU})
}

// DELETE /admin/products/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	if err := h.Products.Delete(c.UserContext(), id); err != nil {
		return failMutation(c, "admin.product.delete.fail", err, map[string]any{"id": id})
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"id": id})
	return ok(c, fiber.Map{"id": id})
}

// GET /admin/products/next-sku?category=
func (h *AdminHandler) NextSKU(c *fiber.Ctx) error {
	cat, okID := validate.ID(c.Query("category"))
	if !okID {
		return fail(c, fiber.StatusBadRequest, "invalid category")
	}
	sku, err := h.Products.NextSKU(c.UserContext(), cat)
	if errors.Is(err, services.ErrCategoryNotFound) {
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		applog.Error(c, "admin.sku.next.fail", err, map[string]any{"category": cat})
		return fail(c, fiber.StatusInternalServerError, msgInternal)
	}
	return ok(c, fiber.Map{"sku": sku})
}

// GET /admin/cache
func (h *AdminHandler) CacheStats(c *fiber.Ctx) error {
	return ok(c, h.Cache.Stats())
}

// readSubmission parses the garment form. Field-level rules are left to the
// service; only shape errors are reported here.
func readSubmission(c *fiber.Ctx) (services.Submission, func(), error) {
	var sub services.Submission
	noop := func() {}

	in := domain.PrendaInput{
		SKU:             c.FormValue("sku"),
		Nombre:          c.FormValue("nombre"),
		Caracteristicas: c.FormValue("caracteristicas"),
		Medidas:         c.FormValue("medidas"),
		DropName:        c.FormValue("drop_name"),
	}
	price, okPrice := validate.Price(c.FormValue("precio"))
	if !okPrice {
		return sub, noop, errors.New("Enter a valid price")
	}
	in.Precio = price

	ints := []struct {
		name   string
		dst    *int
		absent *bool
	}{{"stock", &in.Stock, nil}, {"estado", &in.Estado, &sub.KeepEstado}, {"separado", &in.Separado, &sub.KeepSeparado}}
	for _, f := range ints {
		raw := strings.TrimSpace(c.FormValue(f.name))
		if raw == "" {
			// a new garment starts hidden and available
			if f.absent != nil {
				*f.absent = true
			}
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return sub, noop, errors.New("Invalid " + f.name)
		}
		*f.dst = n
	}
	ids := []struct {
		name string
		dst  *int64
	}{{"categoria_id", &in.CategoriaID}, {"marca_id", &in.MarcaID}, {"talla_id", &in.TallaID}}
	for _, f := range ids {
		raw := strings.TrimSpace(c.FormValue(f.name))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sub, noop, errors.New("Invalid " + f.name)
		}
		*f.dst = n
	}
	sub.Input = in
	sub.ReplaceColor = formFlag(c, "replace_imagenes")
	sub.ReplaceBW = formFlag(c, "replace_imagenes_bw")

	form, err := c.MultipartForm()
	if err != nil {
		// url-encoded submissions carry no files
		return sub, noop, nil
	}
	var opened []io.Closer
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	open := func(field string) ([]upload.File, error) {
		hdrs := form.File[field]
		if len(hdrs) > maxFilesPerKind {
			return nil, errors.New("Too many files in " + field)
		}
		out := make([]upload.File, 0, len(hdrs))
		for _, fh := range hdrs {
			if !isImage(fh) {
				return nil, errors.New("Only image files are accepted: " + fh.Filename)
			}
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			opened = append(opened, f)
			out = append(out, upload.File{Name: fh.Filename, Body: f})
		}
		return out, nil
	}
	if sub.Color, err = open("imagenes"); err != nil {
		closeAll()
		return sub, noop, err
	}
	if sub.BW, err = open("imagenes_bw"); err != nil {
		closeAll()
		return sub, noop, err
	}
	return sub, closeAll, nil
}

func formFlag(c *fiber.Ctx, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.FormValue(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func isImage(fh *multipart.FileHeader) bool {
	ct := fh.Header.Get(fiber.HeaderContentType)
	return ct == "" || strings.HasPrefix(ct, "image/") || ct == fiber.MIMEOctetStream
}
