package services_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"vintagestore/internal/domain"
	"vintagestore/internal/services"
)

func TestInventoryService_CheckAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	inv := services.NewInventoryService(e.catalog)

	one := garment("TRK-001")
	one.Stock = 1
	e.seed(t, one, nil, nil)
	e.seed(t, garment("TRK-002"), nil, nil)
	reserved := garment("TRK-003")
	reserved.Separado = domain.Separado
	e.seed(t, reserved, nil, nil)
	gone := garment("TRK-004")
	gone.Stock = 0
	e.seed(t, gone, nil, nil)
	hidden := garment("TRK-005")
	hidden.Estado = domain.EstadoOculto
	e.seed(t, hidden, nil, nil)

	cases := map[string]string{
		"TRK-001": services.StatusLowStock,
		"TRK-002": services.StatusInStock,
		"TRK-003": services.StatusReserved,
		"TRK-004": services.StatusSoldOut,
		"TRK-005": services.StatusSoldOut,
		"NOPE-01": services.StatusSoldOut,
	}
	for sku, want := range cases {
		a, err := inv.CheckAvailability(ctx, sku)
		if err != nil {
			t.Fatal(err)
		}
		if a.Status != want {
			t.Errorf("%s: want %s, got %+v", sku, want, a)
		}
	}
}

func TestCheckout_BuildsWhatsAppLink(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := garment("TRK-001")
	a.Precio = decimal.RequireFromString("1500.50")
	e.seed(t, a, nil, nil)
	reserved := garment("TRK-002")
	reserved.Separado = domain.Separado
	e.seed(t, reserved, nil, nil)

	svc := services.NewCheckoutService(e.catalog, "+54 9 11 5555-0000", "ARS")
	out, err := svc.Prepare(ctx, []services.CartLine{
		{SKU: "trk-001", Qty: 1},
		{SKU: "TRK-001", Qty: 1},
		{SKU: "TRK-002", Qty: 1},
	}, services.Contact{Name: "Ana"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Lines) != 1 || out.Lines[0].Qty != 2 {
		t.Fatalf("lines: %+v", out.Lines)
	}
	if !out.Total.Equal(decimal.RequireFromString("3001")) {
		t.Fatalf("total = %s", out.Total)
	}
	if len(out.Unavailable) != 1 || out.Unavailable[0].Reason != "reserved" {
		t.Fatalf("unavailable: %+v", out.Unavailable)
	}
	if !strings.HasPrefix(out.Link, "https://wa.me/5491155550000?text=") {
		t.Fatalf("link = %s", out.Link)
	}
	u, err := url.Parse(out.Link)
	if err != nil {
		t.Fatal(err)
	}
	if text := u.Query().Get("text"); text != out.Message || !strings.Contains(text, "Total: $3001.00 ARS") {
		t.Fatalf("message round trip: %q", text)
	}
}

func TestCheckout_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := services.NewCheckoutService(e.catalog, "", "ARS").Prepare(ctx, []services.CartLine{{SKU: "X"}}, services.Contact{}); !errors.Is(err, services.ErrNoWhatsApp) {
		t.Fatalf("want ErrNoWhatsApp, got %v", err)
	}
	svc := services.NewCheckoutService(e.catalog, "5491100000000", "ARS")
	if _, err := svc.Prepare(ctx, nil, services.Contact{}); !errors.Is(err, services.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}
	e.seed(t, garment("TRK-001"), nil, nil)
	_, err := svc.Prepare(ctx, []services.CartLine{{SKU: "TRK-001", Qty: 5}}, services.Contact{})
	if !errors.Is(err, services.ErrNothingOrderable) {
		t.Fatalf("want ErrNothingOrderable, got %v", err)
	}
}

func TestFilterProducts(t *testing.T) {
	list := []domain.Prenda{
		{ID: 1, Nombre: "Campera Levi's", Precio: decimal.NewFromInt(300), Stock: 1, Estado: 1, CategoriaID: 1, MarcaID: 3, DropName: "Otoño"},
		{ID: 2, Nombre: "Buzo Nike", Precio: decimal.NewFromInt(100), Stock: 0, Estado: 1, CategoriaID: 4, MarcaID: 2},
		{ID: 3, Nombre: "Adidas conjunto", Precio: decimal.NewFromInt(200), Stock: 3, Estado: 1, CategoriaID: 5, MarcaID: 1, DropName: "Verano"},
	}
	ids := func(ps []domain.Prenda) (out []int64) {
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}
	eq := func(a, b []int64) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	if got := ids(services.FilterProducts(list, services.Filter{})); !eq(got, []int64{3, 2, 1}) {
		t.Errorf("newest: %v", got)
	}
	if got := ids(services.FilterProducts(list, services.Filter{Sort: services.SortPriceAsc})); !eq(got, []int64{2, 3, 1}) {
		t.Errorf("price asc: %v", got)
	}
	if got := ids(services.FilterProducts(list, services.Filter{Sort: services.SortName})); !eq(got, []int64{3, 2, 1}) {
		t.Errorf("name: %v", got)
	}
	if got := ids(services.FilterProducts(list, services.Filter{Available: true})); !eq(got, []int64{3, 1}) {
		t.Errorf("available: %v", got)
	}
	if got := ids(services.FilterProducts(list, services.Filter{Q: "NIKE"})); !eq(got, []int64{2}) {
		t.Errorf("q: %v", got)
	}
	floor := decimal.NullDecimal{Decimal: decimal.NewFromInt(150), Valid: true}
	if got := ids(services.FilterProducts(list, services.Filter{Min: floor, Drop: "verano"})); !eq(got, []int64{3}) {
		t.Errorf("min+drop: %v", got)
	}
	if list[0].ID != 1 {
		t.Fatal("input slice reordered")
	}
}
