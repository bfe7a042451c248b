package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"vintagestore/internal/cache"
	"vintagestore/internal/domain"
	"vintagestore/internal/images"
	applog "vintagestore/internal/log"
	"vintagestore/internal/repos"
	"vintagestore/internal/upload"
	"vintagestore/internal/validate"
)

// Uploader stores one image on the host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, m upload.Meta, f upload.File) (string, error)
}

// Submission is a garment form with its attached files. Replace flags only
// matter on update: when set, stored images of that kind are dropped in favor
// of the new files; otherwise new files are appended. The Keep flags mark
// estado/separado as absent from the form, so an update leaves them as stored.
type Submission struct {
	Input        domain.PrendaInput
	Color        []upload.File
	BW           []upload.File
	ReplaceColor bool
	ReplaceBW    bool
	KeepEstado   bool
	KeepSeparado bool
}

// Saved identifies a stored garment by id and normalized SKU.
type Saved struct {
	ID  int64
	SKU string
}

type ProductService struct {
	DB      *repos.DB
	Prods   *repos.ProductRepo
	Images  *repos.ImageRepo
	Cats    *repos.CategoryRepo
	Uploads Uploader
	Cache   cache.Cache
}

func NewProductService(db *repos.DB, prods *repos.ProductRepo, imgs *repos.ImageRepo, cats *repos.CategoryRepo,
	up Uploader, c cache.Cache) *ProductService {
	return &ProductService{DB: db, Prods: prods, Images: imgs, Cats: cats, Uploads: up, Cache: c}
}

// Create inserts the garment and its images atomically. Nothing is committed
// unless every file uploaded; files already on the host are left there.
func (s *ProductService) Create(ctx context.Context, sub Submission) (Saved, error) {
	in, cat, err := s.check(ctx, sub.Input, 0)
	if err != nil {
		return Saved{}, err
	}
	meta := upload.Meta{SKU: in.SKU, DropName: in.DropName, Prefijo: cat.Prefijo}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Saved{}, err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := s.Prods.Insert(ctx, tx, in)
	if err != nil {
		return Saved{}, fmt.Errorf("insert prenda: %w", err)
	}
	if err := s.attach(ctx, tx, id, meta, images.Color, sub.Color, 0); err != nil {
		return Saved{}, err
	}
	if err := s.attach(ctx, tx, id, meta, images.BW, sub.BW, 0); err != nil {
		return Saved{}, err
	}
	if err := tx.Commit(); err != nil {
		return Saved{}, err
	}

	s.invalidate(ctx, id, in.SKU)
	applog.Event("product.create", map[string]any{"id": id, "sku": in.SKU, "color": len(sub.Color), "bw": len(sub.BW)})
	return Saved{ID: id, SKU: in.SKU}, nil
}

// Update rewrites the garment and, when files are supplied, replaces or
// extends its images of that kind.
func (s *ProductService) Update(ctx context.Context, id int64, sub Submission) (Saved, error) {
	cur, err := s.Prods.ByID(ctx, id)
	if err != nil {
		return Saved{}, err
	}
	if cur == nil {
		return Saved{}, ErrProductNotFound
	}
	if sub.KeepEstado {
		sub.Input.Estado = cur.Estado
	}
	if sub.KeepSeparado {
		sub.Input.Separado = cur.Separado
	}
	in, cat, err := s.check(ctx, sub.Input, id)
	if err != nil {
		return Saved{}, err
	}
	meta := upload.Meta{SKU: in.SKU, DropName: in.DropName, Prefijo: cat.Prefijo}

	var stale [2][]int64 // stored rows to drop, indexed by table (0 color, 1 bw)
	colorStart, bwStart := 0, 0
	if len(sub.Color) > 0 || len(sub.BW) > 0 {
		colorRows, err := s.Images.For(ctx, images.Color, id)
		if err != nil {
			return Saved{}, err
		}
		bwRows, err := s.Images.For(ctx, images.BW, id)
		if err != nil {
			return Saved{}, err
		}
		color, bw := images.Partition(colorRows, bwRows)
		colorStart, bwStart = len(color), len(bw)

		if len(sub.Color) > 0 && sub.ReplaceColor {
			colorStart = 0
			for _, img := range color {
				stale[0] = append(stale[0], img.ID)
			}
		}
		if len(sub.BW) > 0 && sub.ReplaceBW {
			bwStart = 0
			for _, img := range bwRows {
				stale[1] = append(stale[1], img.ID)
			}
			// BW-looking files stored in the color table go too.
			for _, img := range colorRows {
				if images.IsBlackAndWhite(img.URL) {
					stale[0] = append(stale[0], img.ID)
				}
			}
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Saved{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.Prods.Update(ctx, tx, id, in); err != nil {
		return Saved{}, fmt.Errorf("update prenda: %w", err)
	}
	if err := s.Images.DeleteIDs(ctx, tx, images.Color, stale[0]); err != nil {
		return Saved{}, err
	}
	if err := s.Images.DeleteIDs(ctx, tx, images.BW, stale[1]); err != nil {
		return Saved{}, err
	}
	if err := s.attach(ctx, tx, id, meta, images.Color, sub.Color, colorStart); err != nil {
		return Saved{}, err
	}
	if err := s.attach(ctx, tx, id, meta, images.BW, sub.BW, bwStart); err != nil {
		return Saved{}, err
	}
	if err := tx.Commit(); err != nil {
		return Saved{}, err
	}

	s.invalidate(ctx, id, cur.SKU, in.SKU)
	applog.Event("product.update", map[string]any{"id": id, "sku": in.SKU,
		"replaced_color": len(stale[0]), "replaced_bw": len(stale[1])})
	return Saved{ID: id, SKU: in.SKU}, nil
}

// Delete removes the garment with its color and BW image rows.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	cur, err := s.Prods.ByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrProductNotFound
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.Images.DeleteAll(ctx, tx, images.Color, id); err != nil {
		return err
	}
	if _, err := s.Images.DeleteAll(ctx, tx, images.BW, id); err != nil {
		return err
	}
	if _, err := s.Prods.Delete(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidate(ctx, id, cur.SKU)
	applog.Event("product.delete", map[string]any{"id": id, "sku": cur.SKU})
	return nil
}

// NextSKU proposes {prefix}-{NNN} following the greatest SKU of the category.
func (s *ProductService) NextSKU(ctx context.Context, categoryID int64) (string, error) {
	cat, err := s.Cats.Get(ctx, categoryID)
	if err != nil {
		return "", err
	}
	if cat == nil {
		return "", ErrCategoryNotFound
	}
	last, err := s.Prods.MaxSKU(ctx, cat.Prefijo)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", cat.Prefijo, trailingNumber(last)+1), nil
}

// trailingNumber parses the digits after the last dash; anything else is 0.
func trailingNumber(sku string) int {
	i := strings.LastIndexByte(sku, '-')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(sku[i+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// check validates the input and resolves its category. exceptID is the
// garment allowed to keep the SKU (0 on create).
func (s *ProductService) check(ctx context.Context, raw domain.PrendaInput, exceptID int64) (domain.PrendaInput, *domain.Categoria, error) {
	in, msg := validate.Prenda(raw)
	if msg != "" {
		return in, nil, invalid("%s", msg)
	}
	cat, err := s.Cats.Get(ctx, in.CategoriaID)
	if err != nil {
		return in, nil, err
	}
	if cat == nil {
		return in, nil, invalid("%s", ErrCategoryNotFound.Error())
	}
	taken, err := s.Prods.SKUTaken(ctx, in.SKU, exceptID)
	if err != nil {
		return in, nil, err
	}
	if taken {
		return in, nil, invalid("sku %s already exists", in.SKU)
	}
	return in, cat, nil
}

// attach uploads files of one kind and records their URLs inside tx. Upload
// indexes continue from start so appended files do not reuse host names.
func (s *ProductService) attach(ctx context.Context, tx *sqlx.Tx, prendaID int64, meta upload.Meta,
	kind images.Kind, files []upload.File, start int) error {
	for i, f := range files {
		f.Kind = kind
		f.Index = start + i
		url, err := s.Uploads.Upload(ctx, meta, f)
		if err != nil {
			applog.Warn("product.upload.fail", err, map[string]any{"sku": meta.SKU, "file": f.Name, "kind": string(kind)})
			return &UploadError{File: f.Name, Err: err}
		}
		if _, err := s.Images.Insert(ctx, tx, kind, prendaID, url); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id int64, skus ...string) {
	keys := []string{cache.KeyProductsAll, cache.KeyProductsPublic, cache.ProductByIDKey(id)}
	for _, sku := range skus {
		keys = append(keys, cache.ProductBySKUKey(sku))
	}
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		applog.Warn("cache.invalidate.fail", err, map[string]any{"keys": keys})
	}
}
