package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart        = errors.New("cart empty")
	ErrNoWhatsApp       = errors.New("whatsapp number not configured")
	ErrNothingOrderable = errors.New("no item in the cart can be ordered")
)

type CartLine struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CheckoutLine struct {
	SKU      string          `json:"sku"`
	Nombre   string          `json:"nombre"`
	Qty      int             `json:"qty"`
	Precio   decimal.Decimal `json:"precio"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Unavailable struct {
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

type Checkout struct {
	Lines       []CheckoutLine  `json:"lines"`
	Unavailable []Unavailable   `json:"unavailable,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Message     string          `json:"message"`
	Link        string          `json:"link"`
}

// CheckoutService turns a client-side cart into a WhatsApp order message.
// Stock is not held; the shop confirms over chat.
type CheckoutService struct {
	Catalog  *CatalogService
	WhatsApp string
	Currency string
}

func NewCheckoutService(catalog *CatalogService, whatsapp, currency string) *CheckoutService {
	return &CheckoutService{Catalog: catalog, WhatsApp: whatsapp, Currency: currency}
}

func (s *CheckoutService) Prepare(ctx context.Context, cart []CartLine, contact Contact) (Checkout, error) {
	number := digits(s.WhatsApp)
	if number == "" {
		return Checkout{}, ErrNoWhatsApp
	}
	if len(cart) == 0 {
		return Checkout{}, ErrEmptyCart
	}

	out := Checkout{Lines: []CheckoutLine{}, Total: decimal.Zero, Currency: s.Currency}
	for _, l := range mergeLines(cart) {
		p, err := s.Catalog.ProductBySKU(ctx, l.SKU)
		if err != nil {
			return Checkout{}, err
		}
		switch {
		case p == nil || !p.Visible():
			out.Unavailable = append(out.Unavailable, Unavailable{SKU: l.SKU, Reason: "not found"})
			continue
		case p.Reserved():
			out.Unavailable = append(out.Unavailable, Unavailable{SKU: l.SKU, Reason: "reserved"})
			continue
		case p.Stock < l.Qty:
			out.Unavailable = append(out.Unavailable, Unavailable{SKU: l.SKU, Reason: fmt.Sprintf("only %d left", p.Stock)})
			continue
		}
		out.Lines = append(out.Lines, CheckoutLine{
			SKU: p.SKU, Nombre: p.Nombre, Qty: l.Qty, Precio: p.Precio,
			Subtotal: p.Precio.Mul(decimal.NewFromInt(int64(l.Qty))),
		})
	}
	if len(out.Lines) == 0 {
		return out, ErrNothingOrderable
	}

	for _, l := range out.Lines {
		out.Total = out.Total.Add(l.Subtotal)
	}
	out.Message = s.message(out, contact)
	out.Link = "https://wa.me/" + number + "?text=" + strings.ReplaceAll(url.QueryEscape(out.Message), "+", "%20")
	return out, nil
}

func (s *CheckoutService) message(c Checkout, contact Contact) string {
	var b strings.Builder
	b.WriteString("Hola! Quiero comprar:\n")
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "- %s (%s) x%d: $%s\n", l.Nombre, l.SKU, l.Qty, l.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: $%s %s", c.Total.StringFixed(2), c.Currency)
	if name := strings.TrimSpace(contact.Name); name != "" {
		fmt.Fprintf(&b, "\nNombre: %s", name)
	}
	return b.String()
}

// mergeLines folds repeated SKUs into one line, keeping first-seen order.
func mergeLines(cart []CartLine) []CartLine {
	out := make([]CartLine, 0, len(cart))
	at := map[string]int{}
	for _, l := range cart {
		l.SKU = strings.ToUpper(strings.TrimSpace(l.SKU))
		if l.Qty < 1 {
			l.Qty = 1
		}
		if i, ok := at[l.SKU]; ok {
			out[i].Qty += l.Qty
			continue
		}
		at[l.SKU] = len(out)
		out = append(out, l)
	}
	return out
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
