package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"vintagestore/internal/domain"
)

type ProductRepo struct{ db *DB }

func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

const prendaSelect = `
  SELECT
    p.id, p.sku, p.nombre, p.precio, p.stock,
    COALESCE(p.caracteristicas,'') AS caracteristicas,
    COALESCE(p.medidas,'')         AS medidas,
    p.estado, p.separado,
    COALESCE(p.drop_name,'')       AS drop_name,
    p.categoria_id,
    COALESCE(c.nombre,'')          AS categoria,
    COALESCE(c.prefijo,'')         AS prefijo,
    COALESCE(p.marca_id,0)         AS marca_id,
    COALESCE(m.nombre,'')          AS marca,
    p.talla_id,
    COALESCE(t.nombre,'')          AS talla,
    COALESCE(p.created_at,'')      AS created_at
  FROM prendas p
  LEFT JOIN categorias c ON c.id = p.categoria_id
  LEFT JOIN marcas     m ON m.id = p.marca_id
  LEFT JOIN tallas     t ON t.id = p.talla_id`

// ByID returns nil, nil when no row matches.
func (r *ProductRepo) ByID(ctx context.Context, id int64) (*domain.Prenda, error) {
	return r.one(ctx, prendaSelect+` WHERE p.id = ?`, id)
}

// BySKU returns nil, nil when no row matches.
func (r *ProductRepo) BySKU(ctx context.Context, sku string) (*domain.Prenda, error) {
	return r.one(ctx, prendaSelect+` WHERE p.sku = ?`, sku)
}

func (r *ProductRepo) one(ctx context.Context, query string, arg any) (*domain.Prenda, error) {
	var p domain.Prenda
	if err := r.db.Get(ctx, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// List returns every garment newest first; visibleOnly keeps estado = 1.
func (r *ProductRepo) List(ctx context.Context, visibleOnly bool) ([]domain.Prenda, error) {
	q := prendaSelect
	args := []any{}
	if visibleOnly {
		q += ` WHERE p.estado = ?`
		args = append(args, domain.EstadoVisible)
	}
	q += ` ORDER BY p.id DESC`

	out := []domain.Prenda{}
	err := r.db.Select(ctx, &out, q, args...)
	return out, err
}

// Insert writes a garment row inside tx and returns its id.
func (r *ProductRepo) Insert(ctx context.Context, tx *sqlx.Tx, in domain.PrendaInput) (int64, error) {
	res, err := tx.ExecContext(ctx, `
	  INSERT INTO prendas
	    (sku, nombre, precio, stock, caracteristicas, medidas, estado, separado, drop_name, categoria_id, marca_id, talla_id, created_at)
	  VALUES
	    (?,   ?,      ?,      ?,     ?,               ?,       ?,      ?,        ?,         ?,            ?,        ?,        CURRENT_TIMESTAMP)
	`, in.SKU, in.Nombre, in.Precio, in.Stock, in.Caracteristicas, in.Medidas, in.Estado, in.Separado,
		nullString(in.DropName), in.CategoriaID, nullID(in.MarcaID), in.TallaID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites the garment row inside tx; it reports whether a row matched.
func (r *ProductRepo) Update(ctx context.Context, tx *sqlx.Tx, id int64, in domain.PrendaInput) (bool, error) {
	res, err := tx.ExecContext(ctx, `
	  UPDATE prendas SET
	    sku = ?, nombre = ?, precio = ?, stock = ?, caracteristicas = ?, medidas = ?,
	    estado = ?, separado = ?, drop_name = ?, categoria_id = ?, marca_id = ?, talla_id = ?,
	    updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, in.SKU, in.Nombre, in.Precio, in.Stock, in.Caracteristicas, in.Medidas, in.Estado, in.Separado,
		nullString(in.DropName), in.CategoriaID, nullID(in.MarcaID), in.TallaID, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ProductRepo) Delete(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM prendas WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SKUTaken reports whether another garment already uses sku.
func (r *ProductRepo) SKUTaken(ctx context.Context, sku string, exceptID int64) (bool, error) {
	var n int
	err := r.db.Get(ctx, &n, `SELECT COUNT(*) FROM prendas WHERE sku = ? AND id <> ?`, sku, exceptID)
	return n > 0, err
}

// MaxSKU returns the lexicographically greatest SKU starting with prefix-, or "".
func (r *ProductRepo) MaxSKU(ctx context.Context, prefix string) (string, error) {
	var sku string
	err := r.db.Get(ctx, &sku, `
	  SELECT sku FROM prendas
	  WHERE sku LIKE ?
	  ORDER BY sku DESC
	  LIMIT 1
	`, prefix+"-%")
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return sku, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
