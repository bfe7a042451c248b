package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"vintagestore/internal/cache"
	"vintagestore/internal/domain"
	"vintagestore/internal/images"
	applog "vintagestore/internal/log"
	"vintagestore/internal/repos"
)

// CatalogService assembles garments for display: row + taxonomy names, color
// and BW image sets cleaned up by the images package, cached per key.
type CatalogService struct {
	Prods  *repos.ProductRepo
	Images *repos.ImageRepo
	Cats   *repos.CategoryRepo
	Marcas *repos.BrandRepo
	Tallas *repos.SizeRepo
	Cache  cache.Cache

	// ImageBase prefixes stored relative image paths and synthesized BW defaults.
	ImageBase string
}

func NewCatalogService(prods *repos.ProductRepo, imgs *repos.ImageRepo, cats *repos.CategoryRepo,
	brands *repos.BrandRepo, sizes *repos.SizeRepo, c cache.Cache, imageBase string) *CatalogService {
	return &CatalogService{Prods: prods, Images: imgs, Cats: cats, Marcas: brands, Tallas: sizes, Cache: c, ImageBase: imageBase}
}

// ProductByID returns nil, nil when the garment does not exist.
func (s *CatalogService) ProductByID(ctx context.Context, id int64) (*domain.Prenda, error) {
	return s.product(ctx, cache.ProductByIDKey(id), func() (*domain.Prenda, error) {
		return s.Prods.ByID(ctx, id)
	})
}

// ProductBySKU returns nil, nil when the garment does not exist.
func (s *CatalogService) ProductBySKU(ctx context.Context, sku string) (*domain.Prenda, error) {
	return s.product(ctx, cache.ProductBySKUKey(sku), func() (*domain.Prenda, error) {
		return s.Prods.BySKU(ctx, sku)
	})
}

func (s *CatalogService) product(ctx context.Context, key string, load func() (*domain.Prenda, error)) (*domain.Prenda, error) {
	var cached domain.Prenda
	if s.cacheGet(ctx, key, &cached) {
		out := cached.Clone()
		return &out, nil
	}

	p, err := load()
	if err != nil || p == nil {
		return nil, err
	}

	var color, bw []domain.Imagen
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		color, err = s.Images.For(gctx, images.Color, p.ID)
		return err
	})
	g.Go(func() error {
		var err error
		bw, err = s.Images.For(gctx, images.BW, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.shape(p, color, bw)
	s.cacheSet(ctx, key, p.Clone(), cache.TTLItem)
	return p, nil
}

// Products lists every garment for the back office, newest first.
func (s *CatalogService) Products(ctx context.Context) ([]domain.Prenda, error) {
	return s.list(ctx, cache.KeyProductsAll, false)
}

// PublicProducts lists visible garments for the storefront, newest first.
func (s *CatalogService) PublicProducts(ctx context.Context) ([]domain.Prenda, error) {
	return s.list(ctx, cache.KeyProductsPublic, true)
}

func (s *CatalogService) list(ctx context.Context, key string, visibleOnly bool) ([]domain.Prenda, error) {
	var cached []domain.Prenda
	if s.cacheGet(ctx, key, &cached) {
		return domain.ClonePrendas(cached), nil
	}

	prods, err := s.Prods.List(ctx, visibleOnly)
	if err != nil {
		return nil, err
	}
	if len(prods) == 0 {
		s.cacheSet(ctx, key, prods, cache.TTLList)
		return prods, nil
	}

	ids := make([]int64, len(prods))
	for i := range prods {
		ids[i] = prods[i].ID
	}

	var color, bw []domain.Imagen
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		color, err = s.Images.For(gctx, images.Color, ids...)
		return err
	})
	g.Go(func() error {
		var err error
		bw, err = s.Images.For(gctx, images.BW, ids...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	colorBy := groupByPrenda(color)
	bwBy := groupByPrenda(bw)
	for i := range prods {
		p := &prods[i]
		s.shape(p, colorBy[p.ID], bwBy[p.ID])
	}

	s.cacheSet(ctx, key, domain.ClonePrendas(prods), cache.TTLList)
	return prods, nil
}

// shape fills both image sets of p from the raw rows of the two tables.
func (s *CatalogService) shape(p *domain.Prenda, colorRows, bwRows []domain.Imagen) {
	color, bw := images.Partition(colorRows, bwRows)
	for _, set := range [][]domain.Imagen{color, bw} {
		for i := range set {
			set[i].URL = images.Normalize(images.Resolve(s.ImageBase, images.StripArtifact(set[i].URL)))
		}
	}
	if len(bw) == 0 {
		bw = images.SynthesizeDefaultBW(s.ImageBase, p)
	}
	p.Imagenes = images.Sort(color)
	p.ImagenesBW = images.Sort(bw)
}

func groupByPrenda(rows []domain.Imagen) map[int64][]domain.Imagen {
	out := make(map[int64][]domain.Imagen)
	for _, r := range rows {
		out[r.PrendaID] = append(out[r.PrendaID], r)
	}
	return out
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Categoria, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) Brands(ctx context.Context) ([]domain.Marca, error) {
	return s.Marcas.List(ctx)
}

func (s *CatalogService) Sizes(ctx context.Context) ([]domain.Talla, error) {
	return s.Tallas.List(ctx)
}

// A failing cache is treated as a miss; the database stays authoritative.
func (s *CatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.Cache == nil {
		return false
	}
	ok, err := s.Cache.Get(ctx, key, dest)
	if err != nil {
		applog.Warn("cache.get.fail", err, map[string]any{"key": key})
		return false
	}
	return ok
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, v, ttl); err != nil {
		applog.Warn("cache.set.fail", err, map[string]any{"key": key})
	}
}
