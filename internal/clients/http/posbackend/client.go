package posbackend

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

	"github.com/oapi-codegen/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds a single backend call when no http.Client is supplied.
const DefaultTimeout = 5 * time.Second

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("pos backend unreachable")

// StatusError is returned for any response with a 4xx or 5xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pos backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("pos backend returned %d: %s", e.StatusCode, e.Message)
}

// TokenSource yields the bearer token for the current session. An empty token sends no header.
type TokenSource func(ctx context.Context) (string, error)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.token = source
	}
}

// Client talks to the remote POS backend (/api/products, /api/sales, /api/pending-orders).
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   TokenSource
}

// NewClient builds a backend client with sane defaults.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("pos backend base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse pos backend URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("pos backend URL %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: parsed,
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct stores a new product and echoes it back.
func (c *Client) CreateProduct(ctx context.Context, product Product) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPost, "/api/products", product, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces the product's fields. The backend overwrites every column, so callers send the full product.
func (c *Client) UpdateProduct(ctx context.Context, id string, product Product) error {
	path, err := resourcePath("/api/products/", "id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, product, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	path, err := resourcePath("/api/products/", "id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListSales returns recorded sales.
func (c *Client) ListSales(ctx context.Context) ([]Sale, error) {
	var out []Sale
	if err := c.do(ctx, http.MethodGet, "/api/sales", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSale records a sale. The backend decrements stock for every line.
func (c *Client) CreateSale(ctx context.Context, sale Sale) (*Sale, error) {
	var out Sale
	if err := c.do(ctx, http.MethodPost, "/api/sales", sale, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSale(ctx context.Context, id string) error {
	path, err := resourcePath("/api/sales/", "id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ClearSales removes the completed sales history.
func (c *Client) ClearSales(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/sales", nil, nil)
}

// ListPendingOrders returns held orders.
func (c *Client) ListPendingOrders(ctx context.Context) ([]Sale, error) {
	var out []Sale
	if err := c.do(ctx, http.MethodGet, "/api/pending-orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePendingOrder(ctx context.Context, order Sale) (*Sale, error) {
	var out Sale
	if err := c.do(ctx, http.MethodPost, "/api/pending-orders", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePendingOrder(ctx context.Context, id string) error {
	path, err := resourcePath("/api/pending-orders/", "id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.http == nil || c.baseURL == nil {
		return errors.New("pos backend client not configured")
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("resolve token: %w", err)
		}
		if token = strings.TrimSpace(token); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func resourcePath(prefix, name, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	segment, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, id)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return prefix + segment, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func errorMessage(r io.Reader) string {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(body.Message)
}
