package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"vintagestore/internal/cache"
	"vintagestore/internal/config"
	"vintagestore/internal/http/handlers"
	"vintagestore/internal/repos"
	"vintagestore/internal/tracking"
	"vintagestore/internal/upload"
)

const (
	adminEmail = "admin@vintagestore.test"
	adminPass  = "Passw0rd!"
)

type testApp struct {
	app     *fiber.App
	db      *repos.DB
	users   *repos.UserRepo
	cache   *cache.Memory
	uploads *atomic.Int32
	// failFile makes the image host reject that file name.
	failFile string
}

func newTestApp(t *testing.T, lim handlers.Limits) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDriver:       "sqlite",
		DBDSN:          ":memory:",
		ImageBaseURL:   "https://cdn.test",
		WhatsAppNumber: "+54 9 11 5555-0000",
		Currency:       "ARS",
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.WithRetry(1, time.Millisecond)
	t.Cleanup(func() { _ = db.Close() })

	ta := &testApp{db: db, users: repos.NewUserRepo(db), cache: cache.NewMemory(0), uploads: new(atomic.Int32)}

	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, fh, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if fh.Filename == ta.failFile {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"disk full"}`))
			return
		}
		ta.uploads.Add(1)
		sku := r.FormValue("sku")
		suffix := "img"
		if r.FormValue("imageType") == "bw" {
			suffix = "bw"
		}
		var idx int
		_, _ = fmt.Sscanf(r.FormValue("imageIndex"), "%d", &idx)
		url := fmt.Sprintf("https://cdn.test/%s/%s/%s-%s%02d.png", r.FormValue("prefijo"), sku, sku, suffix, idx+1)
		_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
	}))
	t.Cleanup(host.Close)

	deps := handlers.NewDeps(db, cfg, ta.cache, upload.New(host.URL, 5*time.Second), tracking.Disabled{})
	ta.app = handlers.NewApp(deps, lim)

	ctx := context.Background()
	if _, err := ta.users.EnsureAdmin(ctx, adminEmail, adminPass); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	admin, err := ta.users.ByEmail(ctx, adminEmail)
	if err != nil {
		t.Fatalf("admin lookup: %v", err)
	}
	if err := ta.users.BindSession(ctx, "sid-admin", admin.ID); err != nil {
		t.Fatalf("bind admin session: %v", err)
	}
	if _, err := db.Exec(ctx, `INSERT INTO users(id,email,name,password_hash,role) VALUES('u-alice','alice@vintagestore.test','Alice','x','USER')`); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := ta.users.BindSession(ctx, "sid-user", "u-alice"); err != nil {
		t.Fatalf("bind user session: %v", err)
	}
	return ta
}

// seedPrenda inserts a visible TRK garment with one color image.
func (ta *testApp) seedPrenda(t *testing.T, sku string, estado, stock int) int64 {
	t.Helper()
	ctx := context.Background()
	res, err := ta.db.Exec(ctx, `INSERT INTO prendas(sku,nombre,precio,stock,estado,separado,drop_name,categoria_id,marca_id,talla_id)
		VALUES(?,?,?,?,?,0,'Verano',5,1,3)`, sku, "Conjunto Adidas "+sku, "45000.50", stock, estado)
	if err != nil {
		t.Fatalf("seed prenda: %v", err)
	}
	id, _ := res.LastInsertId()
	if _, err := ta.db.Exec(ctx, `INSERT INTO imagenes(prenda_id,url) VALUES(?,?)`, id, "TRK/"+sku+"/"+sku+"-img1.png"); err != nil {
		t.Fatalf("seed image: %v", err)
	}
	return id
}

func (ta *testApp) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(body, &out)
	return resp, out
}

// adminCSRF opens an admin page to receive the csrf_ cookie.
func (ta *testApp) adminCSRF(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/admin/cache", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin"})
	resp, _ := ta.do(t, req)
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

func adminRequest(method, target, csrfTok string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Csrf-Token", csrfTok)
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin"})
	return req
}

// garmentForm builds a multipart body with the given fields and one part per file.
func garmentForm(t *testing.T, fields map[string]string, files map[string][]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for field, names := range files {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			if err != nil {
				t.Fatal(err)
			}
			_, _ = part.Write([]byte("\x89PNG fake"))
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func trkFields(sku string) map[string]string {
	return map[string]string{
		"sku": sku, "nombre": "Conjunto Adidas retro", "precio": "45000,50", "stock": "2",
		"estado": "1", "separado": "0", "drop_name": "Verano",
		"categoria_id": "5", "marca_id": "1", "talla_id": "3",
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

// captureLogs temporarily replaces the standard logger output.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
