package handlers

import (
	"vintagestore/internal/cache"
	"vintagestore/internal/config"
	"vintagestore/internal/repos"
	"vintagestore/internal/services"
	"vintagestore/internal/tracking"
)

type Deps struct {
	Auth  *services.AuthService
	Cache cache.Cache

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CheckoutHandler  *CheckoutHandler
	TrackingHandler  *TrackingHandler
	AdminHandler     *AdminHandler
	TaxonomyHandler  *TaxonomyHandler
}

func NewDeps(db *repos.DB, cfg config.Config, c cache.Cache, up services.Uploader, sender tracking.Sender) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	brandRepo := repos.NewBrandRepo(db)
	sizeRepo := repos.NewSizeRepo(db)
	prodRepo := repos.NewProductRepo(db)
	imgRepo := repos.NewImageRepo(db)
	userRepo := repos.NewUserRepo(db)

	authSvc := services.NewAuthService(userRepo)
	catalogSvc := services.NewCatalogService(prodRepo, imgRepo, catRepo, brandRepo, sizeRepo, c, cfg.ImageBaseURL)
	productSvc := services.NewProductService(db, prodRepo, imgRepo, catRepo, up, c)
	taxSvc := services.NewTaxonomyService(catRepo, brandRepo, sizeRepo, c)
	invSvc := services.NewInventoryService(catalogSvc)
	checkoutSvc := services.NewCheckoutService(catalogSvc, cfg.WhatsAppNumber, cfg.Currency)
	trackSvc := services.NewTrackingService(catalogSvc, sender, cfg.Currency)

	return &Deps{
		Auth:  authSvc,
		Cache: c,

		AuthHandler:      &AuthHandler{Auth: authSvc},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CheckoutHandler:  &CheckoutHandler{Checkout: checkoutSvc},
		TrackingHandler:  &TrackingHandler{Tracking: trackSvc},
		AdminHandler:     &AdminHandler{Catalog: catalogSvc, Products: productSvc, Cache: c},
		TaxonomyHandler:  &TaxonomyHandler{Taxonomy: taxSvc},
	}
}
