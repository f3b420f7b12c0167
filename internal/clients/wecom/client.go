// Package wecom is the HTTP client for the WeCom server API.
package wecom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// maxErrorBodySize bounds how much of an unexpected response body is
// read for error reporting.
const maxErrorBodySize = 1024

// AccessToken is a token issued by the platform together with its
// remaining lifetime.
type AccessToken struct {
	Value     string
	ExpiresIn time.Duration
}

// Client for the WeCom server API.
type Client struct {
	baseURL    string
	corpID     string
	corpSecret string
	logger     zerolog.Logger
	httpClient *http.Client
}

// New creates a new Client.
func New(baseURL, corpID, corpSecret string, logger zerolog.Logger) (*Client, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WeCom API base URL: %w", err)
	}
	return &Client{
		baseURL:    parsedURL.String(),
		corpID:     corpID,
		corpSecret: corpSecret,
		logger:     logger,
		httpClient: http.DefaultClient,
	}, nil
}

// FetchAccessToken requests a fresh access token for the configured
// corp credentials.
func (c *Client) FetchAccessToken(ctx context.Context) (AccessToken, error) {
	query := url.Values{}
	query.Set("corpid", c.corpID)
	query.Set("corpsecret", c.corpSecret)
	endpoint := c.baseURL + "/cgi-bin/gettoken?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to create token request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to fetch access token: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return AccessToken{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return AccessToken{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if err := body.asError(); err != nil {
		return AccessToken{}, err
	}
	return AccessToken{
		Value:     body.AccessToken,
		ExpiresIn: time.Duration(body.ExpiresIn) * time.Second,
	}, nil
}

// SendMessage posts a message payload to the send API on behalf of the
// configured app. The payload is passed through as-is; the platform
// validates its shape.
func (c *Client) SendMessage(ctx context.Context, accessToken string, message []byte) error {
	query := url.Values{}
	query.Set("access_token", accessToken)
	endpoint := c.baseURL + "/cgi-bin/message/send?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(message))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to POST message: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("send endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode send response: %w", err)
	}
	if err := body.asError(); err != nil {
		return err
	}
	if body.InvalidUser != "" || body.InvalidParty != "" || body.InvalidTag != "" {
		c.logger.Warn().
			Str("invalidUser", body.InvalidUser).
			Str("invalidParty", body.InvalidParty).
			Str("invalidTag", body.InvalidTag).
			Msg("message delivered with invalid recipients")
	}
	return nil
}
