// Package api talks to the remote catalog and order service.
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
	"slices"
	"strings"

	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/nikolayk812/shopcart/internal/order"
	"github.com/nikolayk812/shopcart/internal/port"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token of the current session, if any.
type TokenSource interface {
	Token() (string, bool)
}

var (
	_ port.OrderCreator   = (*Client)(nil)
	_ port.OrderReader    = (*Client)(nil)
	_ port.ProductFetcher = (*Client)(nil)
)

type Client struct {
	base   *url.URL
	client HTTPClient
	tokens TokenSource
}

// NewClient builds a client for the service rooted at baseURL.
// A nil client gets an http.Client with an OpenTelemetry transport.
func NewClient(baseURL string, client HTTPClient, tokens TokenSource) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("api: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL scheme %q is not supported", parsed.Scheme)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		base:   parsed,
		client: client,
		tokens: tokens,
	}, nil
}

// CreateOrder posts the order. Prices are computed by the service; the
// returned order is authoritative.
func (c *Client) CreateOrder(ctx context.Context, reqBody domain.OrderRequest) (domain.Order, error) {
	if reqBody.PaymentMethod == "" {
		reqBody.PaymentMethod = domain.PaymentCreditCard
	}
	if reqBody.Items == nil {
		reqBody.Items = []domain.OrderItem{}
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "orders", reqBody)
	if err != nil {
		return domain.Order{}, err
	}
	if key, ok := order.IdempotencyKey(ctx); ok {
		req.Header.Set("Idempotency-Key", key)
	}

	var created domain.Order
	if err := c.do(req, &created, http.StatusCreated, http.StatusOK); err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

// ListOrders returns the shopper's orders, newest first.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "orders", nil)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	if err := c.do(req, &orders, http.StatusOK); err != nil {
		return nil, err
	}

	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("api: order id is empty")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return domain.Order{}, err
	}

	var o domain.Order
	if err := c.do(req, &o, http.StatusOK); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// GetProduct fetches a catalog product; fields outside the snapshot, such as
// reviews, are dropped.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("api: product id is empty")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "products/"+url.PathEscape(productID), nil)
	if err != nil {
		return domain.Product{}, err
	}

	var product domain.Product
	if err := c.do(req, &product, http.StatusOK); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) do(req *http.Request, out any, okStatus ...int) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("api: request failed: %w", err)
	}
	defer resp.Body.Close()

	if !containsStatus(okStatus, resp.StatusCode) {
		return errorFromResponse(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("api: response has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("api: decode data: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	ref, err := url.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse endpoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, payload any) (*http.Request, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("api: encode payload: %w", err)
	}
	req, err := c.newRequest(ctx, method, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func containsStatus(statuses []int, status int) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
