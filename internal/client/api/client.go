// Package api is the REST client the terminal UI uses to talk to the
// inventory server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Item mirrors the server's item payload.
type Item struct {
	ID        string    `json:"id"`
	MongoID   string    `json:"_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	DateAdded time.Time `json:"dateAdded"`
}

// ItemInput is the body of create and update requests.
type ItemInput struct {
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	DateAdded *time.Time `json:"dateAdded,omitempty"`
}

// ItemEvent is one audit trail entry.
type ItemEvent struct {
	ItemID     string    `json:"itemId"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether err means the server rejected the session.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// Client calls the inventory REST API. The zero value is not usable; use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient returns a client rooted at baseURL, e.g. "http://localhost:5000/api".
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// SetToken sets the bearer token sent with item requests. An empty token
// sends no Authorization header.
func (c *Client) SetToken(token string) {
	c.token = token
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Register creates an account and returns the server acknowledgment.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", credentials{username, password}, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{username, password}, nil, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("api: login response carried no token")
	}
	return resp.Token, nil
}

func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := c.do(ctx, http.MethodGet, "/items", nil, nil, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].normalize()
	}
	return items, nil
}

// CreateItem creates an item. A non-empty idempotencyKey makes retries safe.
func (c *Client) CreateItem(ctx context.Context, in ItemInput, idempotencyKey string) (*Item, error) {
	var headers http.Header
	if idempotencyKey != "" {
		headers = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}
	var item Item
	if err := c.do(ctx, http.MethodPost, "/items", in, headers, &item); err != nil {
		return nil, err
	}
	item.normalize()
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, in ItemInput) (*Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodPut, "/items/"+url.PathEscape(id), in, nil, &item); err != nil {
		return nil, err
	}
	item.normalize()
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ItemHistory(ctx context.Context, id string) ([]ItemEvent, error) {
	var events []ItemEvent
	if err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id)+"/history", nil, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = i.MongoID
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers http.Header, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	var body messageResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(http.StatusText(resp.StatusCode))
	}
	return apiErr
}
