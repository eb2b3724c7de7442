package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
)

type fakeGateway struct {
	listProductsFn func(ctx context.Context, f product.ListProductsFilter) ([]product.Product, error)
	listUsersFn    func(ctx context.Context) ([]user.User, error)
}

func (f *fakeGateway) ListProducts(ctx context.Context, filter product.ListProductsFilter) ([]product.Product, error) {
	return f.listProductsFn(ctx, filter)
}

func (f *fakeGateway) ListUsers(ctx context.Context) ([]user.User, error) {
	return f.listUsersFn(ctx)
}

func TestLoadPassesFiltersAndAnnotates(t *testing.T) {
	var got product.ListProductsFilter
	userCalls := 0

	gw := &fakeGateway{
		listProductsFn: func(_ context.Context, f product.ListProductsFilter) ([]product.Product, error) {
			got = f
			return []product.Product{
				{ID: "p1", SellerID: "s1", Title: "iPhone 12"},
				{ID: "p2", SellerID: "ghost", Title: "Sofa"},
			}, nil
		},
		listUsersFn: func(context.Context) ([]user.User, error) {
			userCalls++
			return []user.User{{
				ID: "s1", Name: "Ada", Role: user.RoleSeller,
				Store: &user.Store{Name: "Ada Gadgets"}, Rating: 4.5, ReviewCount: 2,
			}}, nil
		},
	}

	v := New(context.Background(), gw, NewDirectory(time.Minute))
	if err := v.SetCategory("Phones & Tablets"); err != nil {
		t.Fatalf("SetCategory: %v", err)
	}
	v.SetSearch("  iphone ")

	if err := v.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Category != "Phones & Tablets" || got.Search != "iphone" {
		t.Fatalf("unexpected filter: %+v", got)
	}

	snap := v.Snapshot()
	if len(snap.Items) != 2 || snap.Empty {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	first := snap.Items[0]
	if first.StoreName != "Ada Gadgets" || first.SellerRating != 4.5 || first.ReviewCount != 2 {
		t.Fatalf("annotation missing: %+v", first)
	}
	if snap.Items[1].SellerName != "" {
		t.Fatalf("unknown seller should stay blank: %+v", snap.Items[1])
	}

	_ = v.Load()
	if userCalls != 1 {
		t.Fatalf("seller directory should be cached, loaded %d times", userCalls)
	}
}

func TestEmptyStateAndUnknownCategory(t *testing.T) {
	gw := &fakeGateway{
		listProductsFn: func(context.Context, product.ListProductsFilter) ([]product.Product, error) {
			return []product.Product{}, nil
		},
		listUsersFn: func(context.Context) ([]user.User, error) { return nil, errors.New("directory down") },
	}
	v := New(context.Background(), gw, nil)

	if snap := v.Snapshot(); snap.Empty || snap.Category != product.CategoryAll {
		t.Fatalf("nothing loaded yet: %+v", snap)
	}

	if err := v.Load(); err != nil {
		t.Fatalf("empty result is not an error: %v", err)
	}
	if snap := v.Snapshot(); !snap.Empty || snap.Error != "" {
		t.Fatalf("expected empty state: %+v", snap)
	}

	if err := v.SetCategory("Spaceships"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("SetCategory = %v", err)
	}
}

func TestLoadFailureKeepsPreviousItems(t *testing.T) {
	fail := false
	gw := &fakeGateway{
		listProductsFn: func(context.Context, product.ListProductsFilter) ([]product.Product, error) {
			if fail {
				return nil, errors.New("Failed to load products")
			}
			return []product.Product{{ID: "p1"}}, nil
		},
		listUsersFn: func(context.Context) ([]user.User, error) { return nil, nil },
	}
	v := New(context.Background(), gw, nil)
	_ = v.Load()

	fail = true
	if err := v.Load(); err == nil {
		t.Fatalf("expected failure")
	}
	snap := v.Snapshot()
	if len(snap.Items) != 1 || snap.Error != "Failed to load products" || snap.Loading {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
