// Package gateway talks to the remote expense API. It unwraps {data: ...}
// envelopes into plain domain values and categorizes failures; it does not
// retry, cache, or make authorization decisions.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expensedash/internal/core"
	"expensedash/internal/log"
)

// TokenSource supplies the bearer token attached to each request. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
}

type Option func(*Client)

// WithHTTPClient replaces the default pooled client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource attaches bearer tokens to outgoing requests.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	c := &Client{baseURL: u}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(0, nil)
	}
	return c, nil
}

// NewHTTPClient builds a pooled client whose transport logs every request.
// A zero timeout leaves requests unbounded.
func NewHTTPClient(timeout time.Duration, logger *log.Logger) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: log.NewTransport(transport, logger),
		Timeout:   timeout,
	}
}

type envelope[T any] struct {
	Data *T `json:"data"`
}

type messageBody struct {
	Message string `json:"message"`
}

func (c *Client) CreateExpense(ctx context.Context, req core.CreateExpenseRequest) (core.Expense, error) {
	var env envelope[core.Expense]
	if err := c.do(ctx, "create expense", http.MethodPost, "/api/Expense/create", req, &env); err != nil {
		return core.Expense{}, err
	}
	return deref(env.Data), nil
}

func (c *Client) UpdateExpense(ctx context.Context, req core.UpdateExpenseRequest) (core.Expense, error) {
	var env envelope[core.Expense]
	if err := c.do(ctx, "update expense", http.MethodPut, "/api/Expense/update", req, &env); err != nil {
		return core.Expense{}, err
	}
	return deref(env.Data), nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.do(ctx, "delete expense", http.MethodDelete, "/api/Expense/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	const op = "get expense"
	var env envelope[core.Expense]
	if err := c.do(ctx, op, http.MethodGet, "/api/Expense/"+url.PathEscape(id), nil, &env); err != nil {
		return core.Expense{}, err
	}
	if env.Data == nil {
		return core.Expense{}, &APIError{Op: op, Kind: ErrInvalidResponse, Err: errors.New("missing data")}
	}
	return *env.Data, nil
}

func (c *Client) GetAllExpenses(ctx context.Context) ([]core.Expense, error) {
	return getList[core.Expense](ctx, c, "list expenses", http.MethodGet, "/api/Expense/all", nil)
}

func (c *Client) GetCategorySummary(ctx context.Context) ([]core.CategorySummary, error) {
	return getList[core.CategorySummary](ctx, c, "category summary", http.MethodGet, "/api/Expense/summary/category", nil)
}

func (c *Client) FilterExpenses(ctx context.Context, req core.FilterExpenseRequest) ([]core.Expense, error) {
	return getList[core.Expense](ctx, c, "filter expenses", http.MethodPost, "/api/Expense/filter", req)
}

func (c *Client) GetTrend(ctx context.Context) ([]core.TrendData, error) {
	return getList[core.TrendData](ctx, c, "trend", http.MethodGet, "/api/Expense/trend", nil)
}

func (c *Client) Register(ctx context.Context, req core.RegisterRequest) (core.AuthResponse, error) {
	var resp core.AuthResponse
	err := c.do(ctx, "register", http.MethodPost, "/api/Auth/register", req, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, req core.LoginRequest) (core.AuthResponse, error) {
	var resp core.AuthResponse
	err := c.do(ctx, "login", http.MethodPost, "/api/Auth/login", req, &resp)
	return resp, err
}

// getList unwraps a list envelope; a missing data field becomes an empty slice.
func getList[T any](ctx context.Context, c *Client, op, method, path string, body any) ([]T, error) {
	var env envelope[[]T]
	if err := c.do(ctx, op, method, path, body, &env); err != nil {
		return nil, err
	}
	if env.Data == nil || *env.Data == nil {
		return []T{}, nil
	}
	return *env.Data, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: op, Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Kind: ErrNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var mb messageBody
		_ = json.Unmarshal(raw, &mb)
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: mb.Message, Kind: kindForStatus(resp.StatusCode)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Kind: ErrInvalidResponse, Err: err}
	}
	return nil
}
