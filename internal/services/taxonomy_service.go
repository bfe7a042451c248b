package services

import (
	"context"

	"vintagestore/internal/cache"
	applog "vintagestore/internal/log"
	"vintagestore/internal/repos"
	"vintagestore/internal/validate"
)

// TaxonomyService edits categories, brands and sizes. Garments carry their
// names denormalized, so every write drops the cached lists and items.
type TaxonomyService struct {
	Cats   *repos.CategoryRepo
	Marcas *repos.BrandRepo
	Tallas *repos.SizeRepo
	Cache  cache.Cache
}

func NewTaxonomyService(cats *repos.CategoryRepo, brands *repos.BrandRepo, sizes *repos.SizeRepo, c cache.Cache) *TaxonomyService {
	return &TaxonomyService{Cats: cats, Marcas: brands, Tallas: sizes, Cache: c}
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, nombre, prefijo string) (int64, error) {
	n, p, err := categoryFields(nombre, prefijo)
	if err != nil {
		return 0, err
	}
	id, err := s.Cats.Create(ctx, n, p)
	return id, s.after(ctx, err)
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, id int64, nombre, prefijo string) (bool, error) {
	n, p, err := categoryFields(nombre, prefijo)
	if err != nil {
		return false, err
	}
	ok, err := s.Cats.Update(ctx, id, n, p)
	return ok, s.after(ctx, err)
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	ok, err := s.Cats.Delete(ctx, id)
	return ok, s.after(ctx, err)
}

func (s *TaxonomyService) CreateBrand(ctx context.Context, nombre string) (int64, error) {
	n, ok := validate.Name(nombre)
	if !ok {
		return 0, invalid("invalid brand name")
	}
	id, err := s.Marcas.Create(ctx, n)
	return id, s.after(ctx, err)
}

func (s *TaxonomyService) UpdateBrand(ctx context.Context, id int64, nombre string) (bool, error) {
	n, ok := validate.Name(nombre)
	if !ok {
		return false, invalid("invalid brand name")
	}
	found, err := s.Marcas.Update(ctx, id, n)
	return found, s.after(ctx, err)
}

func (s *TaxonomyService) DeleteBrand(ctx context.Context, id int64) (bool, error) {
	ok, err := s.Marcas.Delete(ctx, id)
	return ok, s.after(ctx, err)
}

func (s *TaxonomyService) CreateSize(ctx context.Context, nombre string) (int64, error) {
	n, ok := validate.Name(nombre)
	if !ok {
		return 0, invalid("invalid size name")
	}
	id, err := s.Tallas.Create(ctx, n)
	return id, s.after(ctx, err)
}

func (s *TaxonomyService) UpdateSize(ctx context.Context, id int64, nombre string) (bool, error) {
	n, ok := validate.Name(nombre)
	if !ok {
		return false, invalid("invalid size name")
	}
	found, err := s.Tallas.Update(ctx, id, n)
	return found, s.after(ctx, err)
}

func (s *TaxonomyService) DeleteSize(ctx context.Context, id int64) (bool, error) {
	ok, err := s.Tallas.Delete(ctx, id)
	return ok, s.after(ctx, err)
}

func categoryFields(nombre, prefijo string) (string, string, error) {
	n, ok := validate.Name(nombre)
	if !ok {
		return "", "", invalid("invalid category name")
	}
	p, ok := validate.Prefix(prefijo)
	if !ok {
		return "", "", invalid("prefix must be 2 to 6 letters")
	}
	return n, p, nil
}

// after drops every cached garment once a write went through, since each one
// carries joined category, brand and size names.
func (s *TaxonomyService) after(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if derr := s.Cache.Delete(ctx, cache.KeyProductsAll, cache.KeyProductsPublic); derr != nil {
		applog.Warn("cache.invalidate.fail", derr, nil)
	}
	if derr := s.Cache.DeletePrefix(ctx, cache.KeyProductPrefix); derr != nil {
		applog.Warn("cache.invalidate.fail", derr, map[string]any{"prefix": cache.KeyProductPrefix})
	}
	return nil
}
