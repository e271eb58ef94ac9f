package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type productView struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Slug  string          `json:"slug"`
	Price decimal.Decimal `json:"price"`
}

type customerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type cartItemPayload struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type checkoutPayload struct {
	Customer customerPayload   `json:"customer"`
	Items    []cartItemPayload `json:"items"`
	Total    decimal.Decimal   `json:"total"`
}

// apiClient ходит в HTTP API витрины.
type apiClient struct {
	baseURL string
	http    *http.Client
}

var _ storefrontClient = (*apiClient)(nil)

func newAPIClient(baseURL string, client *http.Client) *apiClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &apiClient{baseURL: baseURL, http: client}
}

func (c *apiClient) ListProducts(ctx context.Context) ([]productView, int, error) {
	var envelope struct {
		Data []productView `json:"data"`
	}
	status, err := c.do(ctx, http.MethodGet, "/api/products", nil, &envelope)
	return envelope.Data, status, err
}

func (c *apiClient) GetProduct(ctx context.Context, slug string) (int, error) {
	return c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(slug), nil, nil)
}

func (c *apiClient) Checkout(ctx context.Context, req checkoutPayload) (string, int, error) {
	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	status, err := c.do(ctx, http.MethodPost, "/api/checkout", req, &envelope)
	return envelope.Data.ID, status, err
}

func (c *apiClient) UpdateStatus(ctx context.Context, orderID, status string) (int, error) {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPut, "/api/admin/orders/"+url.PathEscape(orderID)+"/status", body, nil)
}

// do отправляет запрос и декодирует ответ в out; статус вне 2xx считается ошибкой.
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var req *http.Request
	var err error
	if body != nil {
		reader, encErr := encodeJSON(body)
		if encErr != nil {
			return 0, fmt.Errorf("encode request: %w", encErr)
		}
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer drainBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
