package repos

import (
	"context"

	"vintagestore/internal/domain"
)

// NamedRepo serves the single-column lookup tables (marcas, tallas).
type NamedRepo[T domain.Marca | domain.Talla] struct {
	db     *DB
	table  string
	column string // prendas foreign key
}

type (
	BrandRepo = NamedRepo[domain.Marca]
	SizeRepo  = NamedRepo[domain.Talla]
)

func NewBrandRepo(db *DB) *BrandRepo {
	return &BrandRepo{db: db, table: "marcas", column: "marca_id"}
}

func NewSizeRepo(db *DB) *SizeRepo {
	return &SizeRepo{db: db, table: "tallas", column: "talla_id"}
}

func (r *NamedRepo[T]) List(ctx context.Context) ([]T, error) {
	out := []T{}
	err := r.db.Select(ctx, &out, `SELECT id, nombre FROM `+r.table+` ORDER BY id`)
	return out, err
}

func (r *NamedRepo[T]) Create(ctx context.Context, nombre string) (int64, error) {
	res, err := r.db.Exec(ctx, `INSERT INTO `+r.table+`(nombre) VALUES(?)`, nombre)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *NamedRepo[T]) Update(ctx context.Context, id int64, nombre string) (bool, error) {
	if found, err := exists(ctx, r.db, r.table, id); err != nil || !found {
		return false, err
	}
	_, err := r.db.Exec(ctx, `UPDATE `+r.table+` SET nombre = ? WHERE id = ?`, nombre, id)
	return err == nil, err
}

// Delete refuses with ErrInUse while garments reference the row.
func (r *NamedRepo[T]) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteUnreferenced(ctx, r.db, r.table, r.column, id)
}
