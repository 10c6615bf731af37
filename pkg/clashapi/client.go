package clashapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mo-amir99/coc-proxy-go/pkg/metrics"
	"github.com/mo-amir99/coc-proxy-go/pkg/tag"
)

// DefaultBaseURL is the public Clash of Clans API root.
const DefaultBaseURL = "https://api.clashofclans.com/v1"

const defaultUserAgent = "COC-Proxy-Go/1.0.0"

// Client forwards requests to the Clash of Clans API using a bearer token
// supplied at construction.
type Client struct {
	baseURL    string
	apiToken   string
	userAgent  string
	normalizer tag.Normalizer
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the timeout on the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTagNormalizer selects how clan and player tags are encoded.
func WithTagNormalizer(n tag.Normalizer) Option {
	return func(c *Client) {
		c.normalizer = n
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new Clash of Clans API client.
func NewClient(baseURL, apiToken string, opts ...Option) *Client {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBaseURL == "" {
		trimmedBaseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:   trimmedBaseURL,
		apiToken:  strings.TrimSpace(apiToken),
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configured reports whether an API token is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiToken != ""
}

// Normalizer returns the tag normalizer in use.
func (c *Client) Normalizer() tag.Normalizer {
	return c.normalizer
}

// ClanPath builds the upstream path for a clan resource, e.g. /clans/%23ABC/members.
func (c *Client) ClanPath(rawTag string, sub ...string) string {
	return resourcePath("clans", c.normalizer.Normalize(rawTag), sub...)
}

// PlayerPath builds the upstream path for a player resource.
func (c *Client) PlayerPath(rawTag string, sub ...string) string {
	return resourcePath("players", c.normalizer.Normalize(rawTag), sub...)
}

func resourcePath(collection, encodedTag string, sub ...string) string {
	parts := append([]string{"", collection, encodedTag}, sub...)
	return strings.Join(parts, "/")
}

// SearchClans forwards the query string to GET /clans.
func (c *Client) SearchClans(ctx context.Context, query url.Values) (json.RawMessage, error) {
	path := "/clans"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.do(ctx, "clans.search", http.MethodGet, path, nil)
}

// Clan fetches a single clan.
func (c *Client) Clan(ctx context.Context, rawTag string) (json.RawMessage, error) {
	return c.do(ctx, "clans.get", http.MethodGet, c.ClanPath(rawTag), nil)
}

// ClanMembers fetches the member list of a clan.
func (c *Client) ClanMembers(ctx context.Context, rawTag string) (json.RawMessage, error) {
	return c.do(ctx, "clans.members", http.MethodGet, c.ClanPath(rawTag, "members"), nil)
}

// ClanWarLog fetches the public war log of a clan.
func (c *Client) ClanWarLog(ctx context.Context, rawTag string) (json.RawMessage, error) {
	return c.do(ctx, "clans.warlog", http.MethodGet, c.ClanPath(rawTag, "warlog"), nil)
}

// Player fetches a single player.
func (c *Client) Player(ctx context.Context, rawTag string) (json.RawMessage, error) {
	return c.do(ctx, "players.get", http.MethodGet, c.PlayerPath(rawTag), nil)
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyPlayerToken checks an in-game API token against a player tag.
func (c *Client) VerifyPlayerToken(ctx context.Context, rawTag, token string) (json.RawMessage, error) {
	body, err := json.Marshal(verifyTokenRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, "players.verifytoken", http.MethodPost, c.PlayerPath(rawTag, "verifytoken"), body)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body []byte) (json.RawMessage, error) {
	start := time.Now()
	status := 0
	defer func() {
		metrics.RecordUpstreamRequest(endpoint, status, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	status = resp.StatusCode

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: payload}
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return json.RawMessage("null"), nil
	}

	return json.RawMessage(payload), nil
}
