// Package feed is the product listing: category and search filters over
// whatever the backend returns, annotated with seller details.
package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/marketlink/internal/cache"
	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
)

var ErrUnknownCategory = errors.New("unknown category")

const directoryKey = "users"

type Gateway interface {
	ListProducts(ctx context.Context, f product.ListProductsFilter) ([]product.Product, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// Directory caches the seller list between feed loads. Share one across
// views so navigating back to home does not refetch every time.
type Directory = cache.Cache[map[string]user.User]

func NewDirectory(ttl time.Duration) *Directory {
	return cache.New[map[string]user.User](ttl)
}

// Item is a product with the seller fields the listing shows.
type Item struct {
	Product      product.Product
	SellerName   string
	StoreName    string
	SellerRating float64
	ReviewCount  int
}

type Snapshot struct {
	Category string
	Search   string
	Items    []Item
	Loaded   bool
	Empty    bool
	Loading  bool
	Error    string
}

type View struct {
	ctx       context.Context
	gw        Gateway
	directory *Directory

	mu       sync.Mutex
	category string
	search   string
	items    []Item
	loaded   bool
	loading  bool
	errMsg   string
}

// New builds the feed with category "All". directory may be nil.
func New(ctx context.Context, gw Gateway, directory *Directory) *View {
	return &View{
		ctx:       ctx,
		gw:        gw,
		directory: directory,
		category:  product.CategoryAll,
	}
}

func (v *View) SetCategory(category string) error {
	if category == "" {
		category = product.CategoryAll
	}
	if category != product.CategoryAll && !product.ValidCategory(category) {
		return ErrUnknownCategory
	}

	v.mu.Lock()
	v.category = category
	v.mu.Unlock()
	return nil
}

func (v *View) SetSearch(query string) {
	v.mu.Lock()
	v.search = strings.TrimSpace(query)
	v.mu.Unlock()
}

// Filter is what the next Load sends.
func (v *View) Filter() product.ListProductsFilter {
	v.mu.Lock()
	defer v.mu.Unlock()

	return product.ListProductsFilter{Category: v.category, Search: v.search}
}

// Load fetches the listing for the current filters. On failure the previous
// items stay in place and Error is set.
func (v *View) Load() error {
	filter := v.Filter()

	v.mu.Lock()
	v.loading = true
	v.errMsg = ""
	v.mu.Unlock()

	products, err := v.gw.ListProducts(v.ctx, filter)
	var sellers map[string]user.User
	if err == nil {
		sellers = v.sellers()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return v.ctx.Err()
	}
	v.loading = false

	if err != nil {
		v.errMsg = err.Error()
		return err
	}

	items := make([]Item, 0, len(products))
	for _, p := range products {
		items = append(items, annotate(p, sellers))
	}
	v.items = items
	v.loaded = true
	return nil
}

// sellers is best effort: without a directory the feed still renders.
func (v *View) sellers() map[string]user.User {
	load := func(ctx context.Context) (map[string]user.User, error) {
		users, err := v.gw.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]user.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		return byID, nil
	}

	if v.directory == nil {
		byID, _ := load(v.ctx)
		return byID
	}

	byID, _ := v.directory.GetOrLoad(v.ctx, directoryKey, load)
	return byID
}

func annotate(p product.Product, sellers map[string]user.User) Item {
	it := Item{Product: p}

	var seller *user.User
	if p.Seller.User != nil {
		seller = p.Seller.User
	} else if u, ok := sellers[p.SellerID]; ok {
		seller = &u
	}
	if seller == nil {
		return it
	}

	it.SellerName = seller.Name
	it.StoreName = seller.DisplayStore()
	it.SellerRating = seller.Rating
	it.ReviewCount = seller.ReviewCount
	return it
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := make([]Item, len(v.items))
	copy(items, v.items)

	return Snapshot{
		Category: v.category,
		Search:   v.search,
		Items:    items,
		Loaded:   v.loaded,
		Empty:    v.loaded && len(v.items) == 0,
		Loading:  v.loading,
		Error:    v.errMsg,
	}
}
