package domain

import "github.com/shopspring/decimal"

type Categoria struct {
	ID      int64  `db:"id" json:"id"`
	Nombre  string `db:"nombre" json:"nombre"`
	Prefijo string `db:"prefijo" json:"prefijo"` // SKU prefix, e.g. TRK
}

type Marca struct {
	ID     int64  `db:"id" json:"id"`
	Nombre string `db:"nombre" json:"nombre"`
}

type Talla struct {
	ID     int64  `db:"id" json:"id"`
	Nombre string `db:"nombre" json:"nombre"`
}

// Imagen is one hosted picture of a garment. Generated BW placeholders carry
// ids at or above SyntheticImageIDBase and are never persisted.
type Imagen struct {
	ID       int64  `db:"id" json:"id"`
	PrendaID int64  `db:"prenda_id" json:"prenda_id"`
	URL      string `db:"url" json:"url"`
}

const SyntheticImageIDBase int64 = 1_000_000_000

// Estado / Separado flag values.
const (
	EstadoOculto  = 0
	EstadoVisible = 1

	Disponible = 0
	Separado   = 1
)

// Prenda is a sellable garment as assembled for display.
type Prenda struct {
	ID              int64           `db:"id" json:"id"`
	SKU             string          `db:"sku" json:"sku"`
	Nombre          string          `db:"nombre" json:"nombre"`
	Precio          decimal.Decimal `db:"precio" json:"precio"`
	Stock           int             `db:"stock" json:"stock"`
	Caracteristicas string          `db:"caracteristicas" json:"caracteristicas"`
	Medidas         string          `db:"medidas" json:"medidas"`
	Estado          int             `db:"estado" json:"estado"`
	Separado        int             `db:"separado" json:"separado"`
	DropName        string          `db:"drop_name" json:"drop_name,omitempty"`

	CategoriaID     int64  `db:"categoria_id" json:"categoria_id"`
	Categoria       string `db:"categoria" json:"categoria"`
	CategoriaPrefix string `db:"prefijo" json:"prefijo"`
	MarcaID         int64  `db:"marca_id" json:"marca_id,omitempty"` // 0 = no brand
	Marca           string `db:"marca" json:"marca,omitempty"`
	TallaID         int64  `db:"talla_id" json:"talla_id"`
	Talla           string `db:"talla" json:"talla"`
	CreatedAt       string `db:"created_at" json:"created_at"`

	Imagenes   []Imagen `db:"-" json:"imagenes"`
	ImagenesBW []Imagen `db:"-" json:"imagenes_bw"`
}

// Clone copies the garment with its own image slices, so cached values are
// never shared with callers.
func (p Prenda) Clone() Prenda {
	p.Imagenes = cloneImagenes(p.Imagenes)
	p.ImagenesBW = cloneImagenes(p.ImagenesBW)
	return p
}

func cloneImagenes(in []Imagen) []Imagen {
	if in == nil {
		return nil
	}
	return append(make([]Imagen, 0, len(in)), in...)
}

func ClonePrendas(in []Prenda) []Prenda {
	if in == nil {
		return nil
	}
	out := make([]Prenda, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func (p *Prenda) Visible() bool  { return p.Estado == EstadoVisible }
func (p *Prenda) Reserved() bool { return p.Separado == Separado }

// Purchasable reports whether a shopper may put the garment in a cart.
func (p *Prenda) Purchasable() bool {
	return p.Visible() && !p.Reserved() && p.Stock > 0
}

type Availability struct {
	SKU    string `json:"sku"`
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | RESERVED | SOLD_OUT
	Qty    int    `json:"qty"`
}

// PrendaInput is the writable part of a garment, as submitted by the back office.
type PrendaInput struct {
	SKU             string          `json:"sku" form:"sku"`
	Nombre          string          `json:"nombre" form:"nombre"`
	Precio          decimal.Decimal `json:"precio" form:"precio"`
	Stock           int             `json:"stock" form:"stock"`
	Caracteristicas string          `json:"caracteristicas" form:"caracteristicas"`
	Medidas         string          `json:"medidas" form:"medidas"`
	Estado          int             `json:"estado" form:"estado"`
	Separado        int             `json:"separado" form:"separado"`
	DropName        string          `json:"drop_name" form:"drop_name"`
	CategoriaID     int64           `json:"categoria_id" form:"categoria_id"`
	MarcaID         int64           `json:"marca_id" form:"marca_id"`
	TallaID         int64           `json:"talla_id" form:"talla_id"`
}
