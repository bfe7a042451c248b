package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"vintagestore/internal/tracking"
)

// TrackingService prices the reported SKUs from the catalog before relaying,
// so the storefront never dictates the event value.
type TrackingService struct {
	Catalog  *CatalogService
	Sender   tracking.Sender
	Currency string
	Now      func() time.Time
}

func NewTrackingService(catalog *CatalogService, sender tracking.Sender, currency string) *TrackingService {
	return &TrackingService{Catalog: catalog, Sender: sender, Currency: currency, Now: time.Now}
}

func (s *TrackingService) Track(ctx context.Context, in tracking.Input, cart []CartLine) (tracking.Event, error) {
	if !tracking.Known(in.Event) {
		_, err := tracking.Build(in, s.Now())
		return tracking.Event{}, err
	}
	total := decimal.Zero
	skus := make([]string, 0, len(cart))
	for _, l := range mergeLines(cart) {
		p, err := s.Catalog.ProductBySKU(ctx, l.SKU)
		if err != nil {
			return tracking.Event{}, err
		}
		if p == nil {
			continue
		}
		skus = append(skus, p.SKU)
		total = total.Add(p.Precio.Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	in.SKUs = skus
	in.Value = total
	in.Currency = s.Currency

	ev, err := tracking.Build(in, s.Now())
	if err != nil {
		return tracking.Event{}, err
	}
	return ev, s.Sender.Send(ctx, ev)
}
