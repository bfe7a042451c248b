package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "vintagestore/internal/log"
	"vintagestore/internal/metrics"
)

// Limits are the per-window request caps. Zero fields take the defaults.
type Limits struct {
	Global       int
	Availability int
	Login        int
	Window       time.Duration
	BodyBytes    int
}

func (l Limits) withDefaults() Limits {
	if l.Global == 0 {
		l.Global = 120
	}
	if l.Availability == 0 {
		l.Availability = 15
	}
	if l.Login == 0 {
		l.Login = 5
	}
	if l.Window == 0 {
		l.Window = time.Minute
	}
	if l.BodyBytes == 0 {
		l.BodyBytes = 16 << 20 // room for a dozen photos
	}
	return l
}

// NewApp builds the JSON API with its middleware stack and routes.
func NewApp(d *Deps, lim Limits) *fiber.App {
	lim = lim.withDefaults()

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    lim.BodyBytes,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(AttachUser(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        lim.Global,
		Expiration: lim.Window,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	}))

	// CSRF only guards cookie-authenticated writes. The token travels in the
	// csrf_ cookie and must be echoed in the X-Csrf-Token header.
	csrfGuard := csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return fail(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	})

	// ---------- Storefront API ----------
	api := app.Group("/api/v1")
	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/sku/:sku", d.ProductHandler.BySKU)
	api.Get("/products/:id", d.ProductHandler.Detail)
	api.Get("/categories", d.CategoryHandler.Categories)
	api.Get("/brands", d.CategoryHandler.Brands)
	api.Get("/sizes", d.CategoryHandler.Sizes)

	availLimiter := limiter.New(limiter.Config{
		Max:        lim.Availability,
		Expiration: lim.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	})
	api.Get("/availability", availLimiter, d.InventoryHandler.Check)
	api.Post("/checkout", d.CheckoutHandler.Prepare)
	api.Post("/events", d.TrackingHandler.Track)

	// ---------- Auth (login throttled) ----------
	app.Post("/login", limiter.New(limiter.Config{
		Max:        lim.Login,
		Expiration: 10 * lim.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", csrfGuard, d.AuthHandler.Logout)

	// ---------- Back office ----------
	admin := app.Group("/admin", RequireAdmin(d.Auth), csrfGuard)
	admin.Get("/products", d.AdminHandler.ListProducts)
	admin.Get("/products/next-sku", d.AdminHandler.NextSKU)
	admin.Get("/products/:id", d.AdminHandler.Product)
	admin.Post("/products", d.AdminHandler.CreateProduct)
	admin.Put("/products/:id", d.AdminHandler.UpdateProduct)
	admin.Post("/products/:id", d.AdminHandler.UpdateProduct) // plain HTML forms cannot PUT
	admin.Delete("/products/:id", d.AdminHandler.DeleteProduct)
	admin.Get("/cache", d.AdminHandler.CacheStats)

	admin.Post("/categories", d.TaxonomyHandler.CreateCategory)
	admin.Put("/categories/:id", d.TaxonomyHandler.UpdateCategory)
	admin.Delete("/categories/:id", d.TaxonomyHandler.DeleteCategory)
	admin.Post("/brands", d.TaxonomyHandler.CreateBrand)
	admin.Put("/brands/:id", d.TaxonomyHandler.UpdateBrand)
	admin.Delete("/brands/:id", d.TaxonomyHandler.DeleteBrand)
	admin.Post("/sizes", d.TaxonomyHandler.CreateSize)
	admin.Put("/sizes/:id", d.TaxonomyHandler.UpdateSize)
	admin.Delete("/sizes/:id", d.TaxonomyHandler.DeleteSize)

	// ---------- Health, metrics & 404 ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Use(func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusNotFound, "Not found")
	})

	return app
}
