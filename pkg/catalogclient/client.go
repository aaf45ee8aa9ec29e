// Package catalogclient is a typed HTTP client for the catalog API.
package catalogclient

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

	"MiniCatalog/internal/catalog"
)

var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrBadRequest  = errors.New("catalog: bad request")
	ErrBadStatus   = errors.New("catalog: bad status")
	ErrUnavailable = errors.New("catalog: unavailable")
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.do(ctx, http.MethodGet, "/api/products", nil, &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodGet, productPath(id), nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in catalog.NewProduct) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodPost, "/api/products", in, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodPut, productPath(id), patch, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil)
}

func (c *Client) AddReview(ctx context.Context, productID string, in catalog.NewReview) (catalog.Review, error) {
	var out catalog.Review
	err := c.do(ctx, http.MethodPost, productPath(productID)+"/reviews", in, &out)
	return out, err
}

func (c *Client) UpdateReview(ctx context.Context, productID, reviewID string, patch catalog.ReviewPatch) (catalog.Review, error) {
	var out catalog.Review
	err := c.do(ctx, http.MethodPut, reviewPath(productID, reviewID), patch, &out)
	return out, err
}

func (c *Client) DeleteReview(ctx context.Context, productID, reviewID string) error {
	return c.do(ctx, http.MethodDelete, reviewPath(productID, reviewID), nil, nil)
}

func productPath(id string) string {
	return "/api/products/" + url.PathEscape(id)
}

func reviewPath(productID, reviewID string) string {
	return productPath(productID) + "/reviews/" + url.PathEscape(reviewID)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, errorMessage(resp.Body))
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, errorMessage(resp.Body))
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorMessage(body io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&e); err != nil || e.Error == "" {
		return "no details"
	}
	return e.Error
}
