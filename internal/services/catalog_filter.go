package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"vintagestore/internal/domain"
)

// Sort orders accepted by FilterProducts.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// Filter narrows the storefront list. Zero values mean "any".
type Filter struct {
	Q           string
	CategoriaID int64
	MarcaID     int64
	TallaID     int64
	Drop        string
	Min         decimal.NullDecimal
	Max         decimal.NullDecimal
	Available   bool
	Sort        string
}

// FilterProducts returns a new slice; the input (often a cached list) is not reordered.
func FilterProducts(in []domain.Prenda, f Filter) []domain.Prenda {
	q := strings.ToLower(strings.TrimSpace(f.Q))
	out := make([]domain.Prenda, 0, len(in))
	for _, p := range in {
		if q != "" && !matchesText(&p, q) {
			continue
		}
		if f.CategoriaID > 0 && p.CategoriaID != f.CategoriaID {
			continue
		}
		if f.MarcaID > 0 && p.MarcaID != f.MarcaID {
			continue
		}
		if f.TallaID > 0 && p.TallaID != f.TallaID {
			continue
		}
		if f.Drop != "" && !strings.EqualFold(p.DropName, f.Drop) {
			continue
		}
		if f.Min.Valid && p.Precio.LessThan(f.Min.Decimal) {
			continue
		}
		if f.Max.Valid && p.Precio.GreaterThan(f.Max.Decimal) {
			continue
		}
		if f.Available && !p.Purchasable() {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Precio.LessThan(out[j].Precio) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Precio.GreaterThan(out[j].Precio) })
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Nombre) < strings.ToLower(out[j].Nombre)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out
}

func matchesText(p *domain.Prenda, q string) bool {
	for _, s := range []string{p.Nombre, p.Caracteristicas, p.Marca, p.SKU, p.Categoria} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
