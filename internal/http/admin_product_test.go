package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"vintagestore/internal/http/handlers"
)

// Creating a garment uploads each file, stores the URLs and is audited.
func TestAdminProductCreate_UploadsAndLogs(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{})
	tok := ta.adminCSRF(t)

	body, ct := garmentForm(t, trkFields("trk-001"), map[string][]string{
		"imagenes":    {"front.png", "back.png"},
		"imagenes_bw": {"mono.png"},
	})
	var status int
	var out map[string]any
	entries := captureLogs(t, func() {
		resp, b := ta.do(t, adminRequest("POST", "/admin/products", tok, body, ct))
		status, out = resp.StatusCode, b
	})
	if status != http.StatusCreated || out["data"].(map[string]any)["sku"] != "TRK-001" {
		t.Fatalf("create: %d %v", status, out)
	}
	if n := ta.uploads.Load(); n != 3 {
		t.Fatalf("expected 3 uploads, got %d", n)
	}
	e, found := findLog(entries, "admin.product.create")
	if !found {
		t.Fatal("admin.product.create log not found")
	}
	if e.Level != "audit" || e.Fields["sku"] != "TRK-001" || e.Fields["images"].(float64) != 2 {
		t.Fatalf("audit entry: %+v", e)
	}

	_, got := ta.do(t, httptest.NewRequest("GET", "/api/v1/products/sku/TRK-001", nil))
	p := got["data"].(map[string]any)
	if p["precio"] != "45000.5" {
		t.Fatalf("price: %v", p["precio"])
	}
	color := p["imagenes"].([]any)
	if len(color) != 2 || color[1].(map[string]any)["url"] != "https://cdn.test/TRK/TRK-001/TRK-001-img02.png" {
		t.Fatalf("color: %v", color)
	}
	bw := p["imagenes_bw"].([]any)
	if len(bw) != 1 || !strings.HasSuffix(bw[0].(map[string]any)["url"].(string), "TRK-001-bw01.png") {
		t.Fatalf("bw: %v", bw)
	}
}

func TestAdminProductCreate_UploadFailureNamesFile(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{})
	ta.failFile = "back.png"
	tok := ta.adminCSRF(t)

	body, ct := garmentForm(t, trkFields("TRK-001"), map[string][]string{"imagenes": {"front.png", "back.png"}})
	resp, out := ta.do(t, adminRequest("POST", "/admin/products", tok, body, ct))
	if resp.StatusCode != http.StatusBadGateway || out["errorFile"] != "back.png" {
		t.Fatalf("expected 502 naming back.png, got %d %v", resp.StatusCode, out)
	}
	if strings.Contains(out["message"].(string), "disk full") {
		t.Fatalf("host error leaked: %v", out)
	}

	resp, _ = ta.do(t, httptest.NewRequest("GET", "/api/v1/products/sku/TRK-001", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("failed create must not persist, got %d", resp.StatusCode)
	}
}

func TestAdminProductCreate_Validation(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{})
	tok := ta.adminCSRF(t)

	fields := trkFields("TRK-001")
	fields["precio"] = "gratis"
	body, ct := garmentForm(t, fields, nil)
	resp, _ := ta.do(t, adminRequest("POST", "/admin/products", tok, body, ct))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad price: %d", resp.StatusCode)
	}

	fields = trkFields("TRK-001")
	fields["nombre"] = "<b>ab</b>"
	body, ct = garmentForm(t, fields, map[string][]string{"imagenes": {"a.png"}})
	var status int
	entries := captureLogs(t, func() {
		r, _ := ta.do(t, adminRequest("POST", "/admin/products", tok, body, ct))
		status = r.StatusCode
	})
	if status != http.StatusBadRequest {
		t.Fatalf("short name: %d", status)
	}
	if _, found := findLog(entries, "validation.fail"); !found {
		t.Fatal("validation.fail not logged")
	}
	if ta.uploads.Load() != 0 {
		t.Fatal("nothing should reach the image host")
	}
}

// Leaving estado and separado out of an update keeps the stored values.
func TestAdminProductUpdate_OmittedFlagsKeepState(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{})
	id := ta.seedPrenda(t, "TRK-001", 1, 2)
	tok := ta.adminCSRF(t)

	fields := trkFields("TRK-001")
	delete(fields, "estado")
	delete(fields, "separado")
	fields["nombre"] = "Conjunto Fila"
	body, ct := garmentForm(t, fields, nil)
	resp, out := ta.do(t, adminRequest("POST", "/admin/products/"+strconv.FormatInt(id, 10), tok, body, ct))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %v", resp.StatusCode, out)
	}

	resp, got := ta.do(t, httptest.NewRequest("GET", "/api/v1/products/sku/TRK-001", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("garment left the storefront: %d %v", resp.StatusCode, got)
	}
	if p := got["data"].(map[string]any); p["nombre"] != "Conjunto Fila" || p["estado"].(float64) != 1 {
		t.Fatalf("after update: %v", p)
	}
}

func TestAdminProductUpdateAndDelete(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{})
	id := ta.seedPrenda(t, "TRK-001", 1, 2)
	tok := ta.adminCSRF(t)
	target := "/admin/products/" + strconv.FormatInt(id, 10)

	// warm the cache so stale reads would show
	ta.do(t, httptest.NewRequest("GET", "/api/v1/products/sku/TRK-001", nil))

	fields := trkFields("trk-001")
	fields["nombre"] = "Conjunto Fila"
	fields["replace_imagenes"] = "on"
	body, ct := garmentForm(t, fields, map[string][]string{"imagenes": {"new.png"}})
	entries := captureLogs(t, func() {
		resp, out := ta.do(t, adminRequest("POST", target, tok, body, ct))
		if resp.StatusCode != http.StatusOK {
			t.Errorf("update: %d %v", resp.StatusCode, out)
		}
	})
	if e, found := findLog(entries, "admin.product.update"); !found || e.Fields["replace_imagenes"] != true || e.Fields["sku"] != "TRK-001" {
		t.Fatalf("update audit: %+v", entries)
	}

	_, got := ta.do(t, httptest.NewRequest("GET", "/api/v1/products/sku/TRK-001", nil))
	p := got["data"].(map[string]any)
	color := p["imagenes"].([]any)
	if p["nombre"] != "Conjunto Fila" || len(color) != 1 || !strings.HasSuffix(color[0].(map[string]any)["url"].(string), "TRK-001-img01.png") {
		t.Fatalf("after update: %v", p)
	}

	resp, _ := ta.do(t, adminRequest("DELETE", target, tok, nil, ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, adminRequest("DELETE", target, tok, nil, ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, httptest.NewRequest("GET", "/api/v1/products/sku/TRK-001", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted garment still served: %d", resp.StatusCode)
	}
}

func TestAdminNextSKUAndCacheStats(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{})
	ta.seedPrenda(t, "TRK-004", 1, 1)
	tok := ta.adminCSRF(t)

	_, out := ta.do(t, adminRequest("GET", "/admin/products/next-sku?category=5", tok, nil, ""))
	if out["data"].(map[string]any)["sku"] != "TRK-005" {
		t.Fatalf("next sku: %v", out)
	}
	resp, _ := ta.do(t, adminRequest("GET", "/admin/products/next-sku?category=42", tok, nil, ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown category: %d", resp.StatusCode)
	}

	ta.do(t, httptest.NewRequest("GET", "/api/v1/products", nil))
	ta.do(t, httptest.NewRequest("GET", "/api/v1/products", nil))
	_, out = ta.do(t, adminRequest("GET", "/admin/cache", tok, nil, ""))
	stats := out["data"].(map[string]any)
	if stats["hits"].(float64) < 1 || stats["misses"].(float64) < 1 {
		t.Fatalf("cache stats: %v", stats)
	}
}

func TestAdminTaxonomy(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{})
	ta.seedPrenda(t, "TRK-001", 1, 1)
	tok := ta.adminCSRF(t)
	const js = "application/json"

	resp, out := ta.do(t, adminRequest("POST", "/admin/categories", tok, strings.NewReader(`{"nombre":"Vestidos","prefijo":"ves"}`), js))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category: %d %v", resp.StatusCode, out)
	}
	resp, _ = ta.do(t, adminRequest("POST", "/admin/categories", tok, strings.NewReader(`{"nombre":"Vestidos","prefijo":"v1"}`), js))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad prefix: %d", resp.StatusCode)
	}

	// category 5 and brand 1 are referenced by TRK-001
	resp, _ = ta.do(t, adminRequest("DELETE", "/admin/categories/5", tok, nil, ""))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("category in use: %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, adminRequest("PUT", "/admin/brands/1", tok, strings.NewReader(`{"nombre":"adidas Originals"}`), js))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename brand: %d", resp.StatusCode)
	}
	resp, _ = ta.do(t, adminRequest("PUT", "/admin/sizes/99", tok, strings.NewReader(`{"nombre":"XXL"}`), js))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing size: %d", resp.StatusCode)
	}

	_, got := ta.do(t, httptest.NewRequest("GET", "/api/v1/products/sku/TRK-001", nil))
	if m := got["data"].(map[string]any)["marca"]; m != "adidas Originals" {
		t.Fatalf("brand rename not visible: %v", m)
	}
}
