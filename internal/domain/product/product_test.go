package product_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
)

func TestProductSellerEncoding(t *testing.T) {
	tests := []struct {
		name   string
		seller product.SellerRef
		want   string
		absent bool
	}{
		{"no seller", product.SellerRef{}, `"seller":`, true},
		{"seller id", product.SellerRef{ID: "s1"}, `"seller":"s1"`, false},
		{"embedded seller", product.SellerRef{ID: "s1", User: &user.User{ID: "s1", Name: "Ada"}}, `"name":"Ada"`, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(product.Product{ID: "p1", Title: "Sofa", Seller: tt.seller})
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			body := string(raw)

			if tt.absent {
				if strings.Contains(body, tt.want) {
					t.Fatalf("expected no seller key, got %s", body)
				}
				return
			}
			if !strings.Contains(body, tt.want) {
				t.Fatalf("expected %s in %s", tt.want, body)
			}
		})
	}
}

func TestSellerRefEncodesEmptyAsNull(t *testing.T) {
	raw, err := json.Marshal(product.SellerRef{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(raw) != "null" {
		t.Fatalf("empty seller = %s, want null", raw)
	}

	var back product.SellerRef
	if err := json.Unmarshal(raw, &back); err != nil || !back.IsZero() {
		t.Fatalf("null should decode to an empty seller, got %+v, %v", back, err)
	}
}
