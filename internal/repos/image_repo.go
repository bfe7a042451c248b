package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vintagestore/internal/domain"
	"vintagestore/internal/images"
)

// ImageRepo reads and writes the two image tables. Which table a row lives in
// is only a storage hint; callers reclassify by URL.
type ImageRepo struct{ db *DB }

func NewImageRepo(db *DB) *ImageRepo { return &ImageRepo{db: db} }

func table(kind images.Kind) string {
	if kind == images.BW {
		return "imagenesBW"
	}
	return "imagenes"
}

// For loads the rows of one table for all given garments in a single query.
func (r *ImageRepo) For(ctx context.Context, kind images.Kind, prendaIDs ...int64) ([]domain.Imagen, error) {
	out := []domain.Imagen{}
	if len(prendaIDs) == 0 {
		return out, nil
	}
	q, args, err := r.db.In(`SELECT id, prenda_id, url FROM `+table(kind)+` WHERE prenda_id IN (?) ORDER BY id`, prendaIDs)
	if err != nil {
		return nil, err
	}
	err = r.db.Select(ctx, &out, q, args...)
	return out, err
}

func (r *ImageRepo) Insert(ctx context.Context, tx *sqlx.Tx, kind images.Kind, prendaID int64, url string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO `+table(kind)+`(prenda_id, url) VALUES(?, ?)`, prendaID, url)
	if err != nil {
		return 0, fmt.Errorf("insert %s image: %w", kind, err)
	}
	return res.LastInsertId()
}

// DeleteIDs removes specific rows of one table.
func (r *ImageRepo) DeleteIDs(ctx context.Context, tx *sqlx.Tx, kind images.Kind, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := r.db.In(`DELETE FROM `+table(kind)+` WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, q, args...)
	return err
}

// DeleteAll removes every row of one table for a garment.
func (r *ImageRepo) DeleteAll(ctx context.Context, tx *sqlx.Tx, kind images.Kind, prendaID int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM `+table(kind)+` WHERE prenda_id = ?`, prendaID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
