// Package identity talks to the Notary identity service that issues and verifies bearer tokens.
package identity

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_gateway.go -package=mocks lessonarchiver/internal/identity Gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrRejected is returned when Notary does not accept a token.
var ErrRejected = errors.New("token rejected")

// RenewalError carries the reason Notary gave for refusing a renewal.
type RenewalError struct {
	Reason string
}

func (e *RenewalError) Error() string {
	return "renewal refused: " + e.Reason
}

// Claims are the verified user attributes Notary returns for a valid token.
type Claims struct {
	UserID     string `json:"user_id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	FullName   string `json:"fullname"`
	Picture    string `json:"picture"`
	Sub        string `json:"sub"`
	Aud        string `json:"aud"`
}

// Gateway defines the identity operations the service depends on.
type Gateway interface {
	// Authorize returns the URL that starts a login with provider and redirects to callback.
	Authorize(ctx context.Context, provider, callback string) (string, error)

	// Inspect verifies token and returns its claims, or ErrRejected.
	Inspect(ctx context.Context, token string) (Claims, error)

	// Renew exchanges token for a fresh one, or returns a *RenewalError.
	Renew(ctx context.Context, token string) (string, error)
}

// Client is a client for the Notary HTTP API.
type Client struct {
	BaseURL  string
	ClientID string
	Key      string
	client   *http.Client
}

// NewClient creates a new Notary client.
func NewClient(baseURL, clientID, key string) *Client {
	return &Client{
		BaseURL:  baseURL,
		ClientID: clientID,
		Key:      key,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type authorizeResponse struct {
	URL string `json:"url"`
}

type inspectResponse struct {
	Valid  bool    `json:"valid"`
	Claims *Claims `json:"claims,omitempty"`
}

type renewResponse struct {
	OK     bool   `json:"ok"`
	Token  string `json:"token,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Authorize asks Notary for the provider login URL.
func (c *Client) Authorize(ctx context.Context, provider, callback string) (string, error) {
	query := url.Values{}
	query.Set("via", provider)
	query.Set("key", c.Key)
	query.Set("callback", callback)

	var resp authorizeResponse
	if err := c.get(ctx, query, &resp, "authorize", c.ClientID); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("notary returned no authorization url")
	}
	return resp.URL, nil
}

// Inspect verifies token with Notary.
func (c *Client) Inspect(ctx context.Context, token string) (Claims, error) {
	if !validSegment(token) {
		return Claims{}, ErrRejected
	}
	var resp inspectResponse
	if err := c.get(ctx, nil, &resp, "inspect", token); err != nil {
		return Claims{}, err
	}
	if !resp.Valid || resp.Claims == nil {
		return Claims{}, ErrRejected
	}
	return *resp.Claims, nil
}

// Renew asks Notary for a new token.
func (c *Client) Renew(ctx context.Context, token string) (string, error) {
	if !validSegment(token) {
		return "", &RenewalError{Reason: "malformed token"}
	}
	var resp renewResponse
	if err := c.get(ctx, nil, &resp, "renew", token); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", &RenewalError{Reason: resp.Reason}
	}
	return resp.Token, nil
}

// validSegment reports whether s can be sent as a single path segment.
// Dot segments would be resolved away by url.JoinPath.
func validSegment(s string) bool {
	return s != "" && s != "." && s != ".."
}

// get sends a GET to BaseURL joined with segments. Each segment is escaped
// so a "/" inside a token cannot leave the endpoint it was meant for.
func (c *Client) get(ctx context.Context, query url.Values, out any, segments ...string) error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid notary url: %w", err)
	}
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	u := base.JoinPath(escaped...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	endpoint := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
