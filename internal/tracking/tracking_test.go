package tracking_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vintagestore/internal/tracking"
)

func TestHashes(t *testing.T) {
	// sha256("test@example.com")
	const want = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"
	if got := tracking.HashEmail("  Test@Example.com "); got != want {
		t.Fatalf("email hash = %s", got)
	}
	if tracking.HashPhone("+54 (11) 5555-0000") != tracking.HashPhone("541155550000") {
		t.Fatal("phone hash must ignore formatting")
	}
	if tracking.HashEmail("") != "" || tracking.HashPhone("n/a") != "" {
		t.Fatal("empty input must not hash")
	}
}

func TestBuild(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ev, err := tracking.Build(tracking.Input{
		Event: tracking.AddToCart, Email: "a@b.co", SKUs: []string{"TRK-001"},
		Value: decimal.RequireFromString("45000.50"), Currency: "ARS",
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	if ev.EventID == "" || ev.EventTime != now.Unix() || ev.ActionSource != "website" {
		t.Fatalf("bad envelope %+v", ev)
	}
	if len(ev.UserData.Em) != 1 || len(ev.UserData.Em[0]) != 64 {
		t.Fatalf("email not hashed: %+v", ev.UserData)
	}
	if ev.CustomData.Value != 45000.5 || ev.CustomData.NumItems != 1 {
		t.Fatalf("bad custom data %+v", ev.CustomData)
	}

	if _, err := tracking.Build(tracking.Input{Event: "Lead"}, now); !errors.Is(err, tracking.ErrUnknownEvent) {
		t.Fatalf("want ErrUnknownEvent, got %v", err)
	}
}

func TestMetaSender_Posts(t *testing.T) {
	var path, token string
	var body struct {
		Data []tracking.Event `json:"data"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		token = r.URL.Query().Get("access_token")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	s := tracking.NewSender(srv.URL, "123", "tok", time.Second)
	ev, _ := tracking.Build(tracking.Input{Event: tracking.ViewContent, SKUs: []string{"TRK-001"}}, time.Now())
	if err := s.Send(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if path != "/123/events" || token != "tok" {
		t.Fatalf("path=%s token=%s", path, token)
	}
	if len(body.Data) != 1 || body.Data[0].EventID != ev.EventID {
		t.Fatalf("body = %+v", body)
	}
}

func TestNewSender_DisabledWithoutPixel(t *testing.T) {
	s := tracking.NewSender("http://unused", "", "", 0)
	if _, ok := s.(tracking.Disabled); !ok {
		t.Fatalf("want Disabled, got %T", s)
	}
	if err := s.Send(context.Background(), tracking.Event{EventName: tracking.Purchase}); err != nil {
		t.Fatal(err)
	}
}
