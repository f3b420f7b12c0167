// Package forwarder relays verified callback bodies to the backend
// function host without touching them.
package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qybridge/wecom-relay/internal/richerrors"
)

// Default timeout for backend requests
const defaultBackendTimeout = 30 * time.Second

// Forwarder posts callback bodies to the backend function host.
type Forwarder struct {
	baseURL string
	client  *http.Client
}

// Response is the backend's reply, relayed to the platform verbatim.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// New creates a Forwarder targeting baseURL. A nil client gets a
// default with a bounded timeout.
func New(baseURL string, client *http.Client) (*Forwarder, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend base URL: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultBackendTimeout}
	}
	return &Forwarder{
		baseURL: parsedURL.String(),
		client:  client,
	}, nil
}

// Forward posts body to the backend under the original path and query
// and returns the backend's response unchanged. Transport failures map
// to 502 so the platform retries the callback.
func (f *Forwarder) Forward(ctx context.Context, path, rawQuery, contentType string, body []byte) (*Response, error) {
	target := f.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", "WeCom-Relay/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, richerrors.Error{
			Code:        fiber.StatusBadGateway,
			ExternalMsg: "Backend unavailable",
			Err:         fmt.Errorf("failed to POST to backend: %w", err),
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, richerrors.Error{
			Code:        fiber.StatusBadGateway,
			ExternalMsg: "Backend unavailable",
			Err:         fmt.Errorf("failed to read backend response: %w", err),
		}
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}
