package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/validate"
)

// productList accepts a bare array or a {"products": [...]} wrapper.
type productList []product.Product

func (l *productList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]product.Product)(l))
	}

	var wrapped struct {
		Products []product.Product `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Products
	return nil
}

// ProductQuery builds the listing query. Category "All" (or empty) is omitted.
func ProductQuery(f product.ListProductsFilter) url.Values {
	q := url.Values{}
	if f.Category != "" && f.Category != product.CategoryAll {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.SellerID != "" {
		q.Set("sellerId", f.SellerID)
	}
	return q
}

// ListProducts returns what the backend returns; there is no client-side
// filtering, sorting or pagination.
func (c *Client) ListProducts(ctx context.Context, f product.ListProductsFilter) ([]product.Product, error) {
	var list productList
	err := c.do(ctx, call{
		op:       "list_products",
		method:   http.MethodGet,
		path:     "/products",
		query:    ProductQuery(f),
		fallback: "Failed to load products",
	}, &list)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return []product.Product{}, nil
	}
	return list, nil
}

func (c *Client) AddProduct(ctx context.Context, req product.CreateProductRequest) (*product.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if !product.ValidCategory(req.Category) {
		return nil, validate.New("category", "oneof", "must be a known category")
	}

	var created product.Product
	err := c.do(ctx, call{
		op:       "add_product",
		method:   http.MethodPost,
		path:     "/products",
		body:     req,
		bearer:   true,
		fallback: "Failed to add product",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct is only permitted for the owning seller; the backend enforces it.
func (c *Client) UpdateProduct(ctx context.Context, id string, req product.UpdateProductRequest) (*product.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Category != nil && !product.ValidCategory(*req.Category) {
		return nil, validate.New("category", "oneof", "must be a known category")
	}

	var updated product.Product
	err := c.do(ctx, call{
		op:       "update_product",
		method:   http.MethodPut,
		path:     "/products/" + url.PathEscape(id),
		body:     req,
		bearer:   true,
		fallback: "Failed to update product",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete_product: %w", validate.New("id", "required", "is required"))
	}

	return c.do(ctx, call{
		op:       "delete_product",
		method:   http.MethodDelete,
		path:     "/products/" + url.PathEscape(id),
		bearer:   true,
		fallback: "Failed to delete product",
	}, nil)
}
