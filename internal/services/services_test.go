package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vintagestore/internal/cache"
	"vintagestore/internal/domain"
	"vintagestore/internal/images"
	"vintagestore/internal/repos"
	"vintagestore/internal/services"
	"vintagestore/internal/upload"
)

const testImageBase = "https://cdn.test"

type env struct {
	db       *repos.DB
	cache    *cache.Memory
	catalog  *services.CatalogService
	products *services.ProductService
	uploads  *fakeUploader
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.WithRetry(2, time.Millisecond)
	t.Cleanup(func() { _ = db.Close() })

	c := cache.NewMemory(0)
	prods := repos.NewProductRepo(db)
	imgs := repos.NewImageRepo(db)
	cats := repos.NewCategoryRepo(db)
	up := &fakeUploader{}

	return &env{
		db:       db,
		cache:    c,
		catalog:  services.NewCatalogService(prods, imgs, cats, repos.NewBrandRepo(db), repos.NewSizeRepo(db), c, testImageBase),
		products: services.NewProductService(db, prods, imgs, cats, up, c),
		uploads:  up,
	}
}

// seed inserts a garment and its raw image rows directly, bypassing uploads.
func (e *env) seed(t *testing.T, in domain.PrendaInput, color, bw []string) int64 {
	t.Helper()
	ctx := context.Background()
	tx, err := e.db.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = tx.Rollback() }()
	id, err := repos.NewProductRepo(e.db).Insert(ctx, tx, in)
	if err != nil {
		t.Fatal(err)
	}
	imgs := repos.NewImageRepo(e.db)
	for _, u := range color {
		if _, err := imgs.Insert(ctx, tx, images.Color, id, u); err != nil {
			t.Fatal(err)
		}
	}
	for _, u := range bw {
		if _, err := imgs.Insert(ctx, tx, images.BW, id, u); err != nil {
			t.Fatal(err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	return id
}

func garment(sku string) domain.PrendaInput {
	return domain.PrendaInput{
		SKU: sku, Nombre: "Conjunto Adidas " + sku, Precio: decimal.NewFromInt(45000),
		Stock: 2, Estado: domain.EstadoVisible, DropName: "Verano",
		CategoriaID: 5, MarcaID: 1, TallaID: 3,
	}
}

// fakeUploader answers with {prefijo}/{sku}/{sku}-{img|bw}{NN}.png and can
// be told to reject one file name.
type fakeUploader struct {
	mu     sync.Mutex
	failOn string
	calls  []upload.File
}

func (f *fakeUploader) Upload(_ context.Context, m upload.Meta, file upload.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, file)
	if file.Name == f.failOn {
		return "", errors.New("550 remote write failed")
	}
	tag := "img"
	if file.Kind == images.BW {
		tag = "bw"
	}
	return fmt.Sprintf("%s/%s/%s-%s%02d.png", m.Prefijo, m.SKU, m.SKU, tag, file.Index+1), nil
}

func files(names ...string) []upload.File {
	out := make([]upload.File, len(names))
	for i, n := range names {
		out[i] = upload.File{Name: n}
	}
	return out
}
