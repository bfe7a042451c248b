package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vintagestore/internal/domain"
)

// ErrInUse is returned when deleting a taxonomy row that garments still reference.
var ErrInUse = errors.New("still referenced by garments")

type CategoryRepo struct{ db *DB }

func NewCategoryRepo(db *DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Categoria, error) {
	out := []domain.Categoria{}
	err := r.db.Select(ctx, &out, `
	  SELECT id, nombre, prefijo
	  FROM categorias
	  ORDER BY nombre
	`)
	return out, err
}

// Get returns nil, nil when the category does not exist.
func (r *CategoryRepo) Get(ctx context.Context, id int64) (*domain.Categoria, error) {
	var c domain.Categoria
	err := r.db.Get(ctx, &c, `SELECT id, nombre, prefijo FROM categorias WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, nombre, prefijo string) (int64, error) {
	res, err := r.db.Exec(ctx, `INSERT INTO categorias(nombre, prefijo) VALUES(?, ?)`,
		nombre, strings.ToUpper(prefijo))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CategoryRepo) Update(ctx context.Context, id int64, nombre, prefijo string) (bool, error) {
	if found, err := exists(ctx, r.db, "categorias", id); err != nil || !found {
		return false, err
	}
	_, err := r.db.Exec(ctx, `UPDATE categorias SET nombre = ?, prefijo = ? WHERE id = ?`,
		nombre, strings.ToUpper(prefijo), id)
	return err == nil, err
}

// exists checks by id. MySQL reports zero affected rows for an update that
// changes nothing, so RowsAffected cannot tell a no-op from a missing row.
func exists(ctx context.Context, db *DB, table string, id int64) (bool, error) {
	var n int
	if err := db.Get(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteUnreferenced(ctx, r.db, "categorias", "categoria_id", id)
}

// deleteUnreferenced removes a taxonomy row unless a garment still points at it.
func deleteUnreferenced(ctx context.Context, db *DB, table, column string, id int64) (bool, error) {
	var n int
	if err := db.Get(ctx, &n, `SELECT COUNT(*) FROM prendas WHERE `+column+` = ?`, id); err != nil {
		return false, err
	}
	if n > 0 {
		return false, ErrInUse
	}
	res, err := db.Exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}
