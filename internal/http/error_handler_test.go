package handlers_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"vintagestore/internal/http/handlers"
)

func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())

	// Route that triggers an internal error
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/gone", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "no such garment")
	})

	var resp, gone *fiberResp
	entries := captureLogs(t, func() {
		resp = get(t, app, "/err")
		gone = get(t, app, "/gone")
	})
	if resp.status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.status)
	}
	if !strings.Contains(resp.body, "Something went wrong") {
		t.Fatalf("friendly message missing; body=%s", resp.body)
	}
	if strings.Contains(resp.body, "db timeout") || strings.Contains(resp.body, "secret") {
		t.Fatalf("internal details leaked to user; body=%s", resp.body)
	}
	e, found := findLog(entries, "server.error")
	if !found || !strings.Contains(e.Err, "db timeout") {
		t.Fatalf("server.error must keep the cause in the log, got %+v", entries)
	}

	if gone.status != fiber.StatusNotFound || !strings.Contains(gone.body, "no such garment") {
		t.Fatalf("client errors keep their message: %d %s", gone.status, gone.body)
	}
}

type fiberResp struct {
	status int
	body   string
}

func get(t *testing.T, app *fiber.App, target string) *fiberResp {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("test request failed: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	return &fiberResp{status: resp.StatusCode, body: string(b)}
}
