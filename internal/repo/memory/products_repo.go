package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/google/uuid"
)

type ProductsRepo struct {
	mu    sync.RWMutex
	items map[string]product.Product
}

func NewProductsRepo() *ProductsRepo {
	return &ProductsRepo{
		items: make(map[string]product.Product),
	}
}

func toImages(urls []string) []product.Image {
	out := make([]product.Image, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, product.Image{URL: u})
		}
	}
	return out
}

func (r *ProductsRepo) Create(req product.CreateProductRequest) (product.Product, error) {
	p := product.Product{
		ID:          uuid.NewString(),
		SellerID:    req.SellerID,
		Seller:      product.SellerRef{ID: req.SellerID},
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Images:      toImages(req.Images),
		CreatedAt:   time.Now().UTC(),
	}

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return p, nil
}

func (r *ProductsRepo) GetByID(id string) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return product.Product{}, ErrNotFound
	}
	return p, nil
}

// List filters by exact category, exact seller and a case-insensitive
// substring of title or description. Newest first.
func (r *ProductsRepo) List(f product.ListProductsFilter) []product.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	r.mu.RLock()
	out := make([]product.Product, 0, len(r.items))
	for _, p := range r.items {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.SellerID != "" && p.SellerID != f.SellerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *ProductsRepo) Update(id string, req product.UpdateProductRequest) (product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return product.Product{}, ErrNotFound
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Condition != nil {
		p.Condition = *req.Condition
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.Images != nil {
		p.Images = toImages(req.Images)
	}

	r.items[id] = p
	return p, nil
}

func (r *ProductsRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
