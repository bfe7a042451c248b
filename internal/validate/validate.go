package validate

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"vintagestore/internal/domain"
)

var (
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ      = regexp.MustCompile(`^[\p{L}0-9 _'\\.-]{1,50}$`)
	reSKU    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
	rePrefix = regexp.MustCompile(`^[A-Za-z]{2,6}$`)

	strict = bluemonday.StrictPolicy()
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if utf8.RuneCountInString(s) > 50 {
		s = string([]rune(s)[:50])
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// ID parses a positive numeric row id.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func SKU(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, s != "" && reSKU.MatchString(s)
}

// Prefix validates a category SKU prefix (letters only, upper-cased).
func Prefix(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, rePrefix.MatchString(s)
}

// Name validates a displayable taxonomy name with a reasonable max length.
func Name(s string) (string, bool) {
	s = Text(s)
	if s == "" || utf8.RuneCountInString(s) > 60 {
		return "", false
	}
	return s, true
}

// Price parses a positive decimal amount; both "1500.50" and "1500,50" are accepted.
func Price(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// Text strips any markup from admin free text.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Prenda cleans a garment submission. It returns the first problem found as
// a message for the back office, or "" when the input is acceptable.
func Prenda(in domain.PrendaInput) (domain.PrendaInput, string) {
	in.Nombre = Text(in.Nombre)
	in.Caracteristicas = Text(in.Caracteristicas)
	in.Medidas = Text(in.Medidas)
	in.DropName = Text(in.DropName)

	switch {
	case utf8.RuneCountInString(in.Nombre) < 3:
		return in, "name must have at least 3 characters"
	case utf8.RuneCountInString(in.Nombre) > 120:
		return in, "name is too long"
	}
	sku, ok := SKU(in.SKU)
	if !ok {
		return in, "sku is required"
	}
	in.SKU = sku
	switch {
	case !in.Precio.IsPositive():
		return in, "price must be greater than 0"
	case in.Stock < 0:
		return in, "stock cannot be negative"
	case in.CategoriaID <= 0:
		return in, "category is required"
	case in.TallaID <= 0:
		return in, "size is required"
	case in.MarcaID < 0:
		return in, "invalid brand"
	case in.Estado != domain.EstadoOculto && in.Estado != domain.EstadoVisible:
		return in, "invalid estado"
	case in.Separado != domain.Disponible && in.Separado != domain.Separado:
		return in, "invalid separado"
	}
	return in, ""
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
