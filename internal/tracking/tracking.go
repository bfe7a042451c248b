// Package tracking builds and relays server-side conversion events.
package tracking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	applog "vintagestore/internal/log"
	"vintagestore/internal/metrics"
)

const (
	AddToCart        = "AddToCart"
	ViewContent      = "ViewContent"
	InitiateCheckout = "InitiateCheckout"
	Purchase         = "Purchase"
)

var ErrUnknownEvent = errors.New("unknown event")

func Known(name string) bool {
	switch name {
	case AddToCart, ViewContent, InitiateCheckout, Purchase:
		return true
	}
	return false
}

type UserData struct {
	Em       []string `json:"em,omitempty"`
	Ph       []string `json:"ph,omitempty"`
	Fbp      string   `json:"fbp,omitempty"`
	Fbc      string   `json:"fbc,omitempty"`
	ClientIP string   `json:"client_ip_address,omitempty"`
	ClientUA string   `json:"client_user_agent,omitempty"`
}

type CustomData struct {
	Value       float64  `json:"value"`
	Currency    string   `json:"currency"`
	ContentIDs  []string `json:"content_ids,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	NumItems    int      `json:"num_items,omitempty"`
}

type Event struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	EventID        string     `json:"event_id"`
	EventSourceURL string     `json:"event_source_url,omitempty"`
	ActionSource   string     `json:"action_source"`
	UserData       UserData   `json:"user_data"`
	CustomData     CustomData `json:"custom_data"`
}

// Input is what the storefront reports plus the request's own data.
type Input struct {
	Event     string
	EventID   string
	Email     string
	Phone     string
	Fbp       string
	Fbc       string
	IP        string
	UserAgent string
	SourceURL string
	SKUs      []string
	Value     decimal.Decimal
	Currency  string
}

// HashEmail returns the hex SHA-256 of the trimmed, lower-cased address.
func HashEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return hash(s)
}

// HashPhone keeps digits only before hashing.
func HashPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return hash(b.String())
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Build validates the event name and fills ids, hashes and timestamps.
func Build(in Input, now time.Time) (Event, error) {
	if !Known(in.Event) {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, in.Event)
	}
	id := in.EventID
	if id == "" {
		id = uuid.NewString()
	}
	ev := Event{
		EventName:      in.Event,
		EventTime:      now.Unix(),
		EventID:        id,
		EventSourceURL: in.SourceURL,
		ActionSource:   "website",
		UserData: UserData{
			Fbp:      in.Fbp,
			Fbc:      in.Fbc,
			ClientIP: in.IP,
			ClientUA: in.UserAgent,
		},
		CustomData: CustomData{
			Value:       in.Value.InexactFloat64(),
			Currency:    in.Currency,
			ContentIDs:  in.SKUs,
			ContentType: "product",
			NumItems:    len(in.SKUs),
		},
	}
	if h := HashEmail(in.Email); h != "" {
		ev.UserData.Em = []string{h}
	}
	if h := HashPhone(in.Phone); h != "" {
		ev.UserData.Ph = []string{h}
	}
	return ev, nil
}

type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// Disabled drops events; used when no pixel is configured.
type Disabled struct{}

func (Disabled) Send(_ context.Context, ev Event) error {
	metrics.TrackingEvents.WithLabelValues(ev.EventName, "skipped").Inc()
	return nil
}

type MetaSender struct {
	http  *resty.Client
	url   string
	token string
}

// NewSender posts to {apiURL}/{pixelID}/events, or returns Disabled when
// pixelID is empty.
func NewSender(apiURL, pixelID, token string, timeout time.Duration) Sender {
	if pixelID == "" {
		return Disabled{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MetaSender{
		http:  resty.New().SetTimeout(timeout),
		url:   strings.TrimRight(apiURL, "/") + "/" + pixelID + "/events",
		token: token,
	}
}

func (s *MetaSender) Send(ctx context.Context, ev Event) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("access_token", s.token).
		SetBody(map[string]any{"data": []Event{ev}}).
		Post(s.url)
	if err == nil && resp.IsError() {
		err = fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if err != nil {
		metrics.TrackingEvents.WithLabelValues(ev.EventName, "fail").Inc()
		applog.Warn("tracking.send.fail", err, map[string]any{"event": ev.EventName, "event_id": ev.EventID})
		return err
	}
	metrics.TrackingEvents.WithLabelValues(ev.EventName, "ok").Inc()
	return nil
}
