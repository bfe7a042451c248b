package services

import (
	"context"

	"vintagestore/internal/domain"
)

// Availability states.
const (
	StatusInStock  = "IN_STOCK"
	StatusLowStock = "LOW_STOCK"
	StatusReserved = "RESERVED"
	StatusSoldOut  = "SOLD_OUT"
)

type InventoryService struct {
	Catalog *CatalogService
}

func NewInventoryService(catalog *CatalogService) *InventoryService {
	return &InventoryService{Catalog: catalog}
}

// CheckAvailability maps a garment to SOLD_OUT / RESERVED / LOW_STOCK / IN_STOCK.
// Unknown and hidden SKUs read as sold out.
func (s *InventoryService) CheckAvailability(ctx context.Context, sku string) (domain.Availability, error) {
	p, err := s.Catalog.ProductBySKU(ctx, sku)
	if err != nil {
		return domain.Availability{}, err
	}
	return availabilityOf(sku, p), nil
}

func availabilityOf(sku string, p *domain.Prenda) domain.Availability {
	a := domain.Availability{SKU: sku, Status: StatusSoldOut}
	if p == nil || !p.Visible() {
		return a
	}
	a.Qty = p.Stock
	switch {
	case p.Stock <= 0:
		a.Status = StatusSoldOut
	case p.Reserved():
		a.Status = StatusReserved
	case p.Stock == 1:
		a.Status = StatusLowStock
	default:
		a.Status = StatusInStock
	}
	return a
}
