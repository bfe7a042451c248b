// Package upload talks to the image host. The host stores each file under
// {drop}/{prefijo}[/BW]/{sku}/ and answers with its public URL.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"vintagestore/internal/images"
	"vintagestore/internal/metrics"
)

var ErrNoURL = errors.New("upload service answered without url")

// File is one image of a submission. Index is 0-based within its kind.
type File struct {
	Name  string
	Body  io.Reader
	Kind  images.Kind
	Index int
}

// Meta is the garment data the host uses to place files.
type Meta struct {
	SKU      string
	DropName string
	Prefijo  string
}

type Client struct {
	http *resty.Client
	url  string
}

type result struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().SetTimeout(timeout),
		url:  url,
	}
}

// Upload posts one file as multipart/form-data and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, m Meta, f File) (string, error) {
	form := map[string]string{
		"sku":        m.SKU,
		"imageType":  string(f.Kind),
		"imageIndex": strconv.Itoa(f.Index),
	}
	if m.DropName != "" {
		form["dropName"] = m.DropName
	}
	if m.Prefijo != "" {
		form["prefijo"] = m.Prefijo
	}

	var out result
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", f.Name, f.Body).
		SetFormData(form).
		SetResult(&out).
		SetError(&out).
		Post(c.url)
	if err != nil {
		metrics.Uploads.WithLabelValues(string(f.Kind), "fail").Inc()
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}
	if resp.IsError() {
		metrics.Uploads.WithLabelValues(string(f.Kind), "fail").Inc()
		msg := strings.TrimSpace(out.Message)
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("upload %s: status %d: %s", f.Name, resp.StatusCode(), msg)
	}
	if strings.TrimSpace(out.URL) == "" {
		metrics.Uploads.WithLabelValues(string(f.Kind), "fail").Inc()
		return "", fmt.Errorf("upload %s: %w", f.Name, ErrNoURL)
	}
	metrics.Uploads.WithLabelValues(string(f.Kind), "ok").Inc()
	return out.URL, nil
}
